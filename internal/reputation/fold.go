package reputation

import (
	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
)

// folder applies reputation events to a record. The same fold runs for live
// writes and for Replay, so the stored record is always reproducible from
// the event log alone.
type folder struct {
	cfg config.ReputationConfig
}

func (f folder) apply(record *models.ReputationRecord, event *models.ReputationEvent) {
	record.Score += event.ScoreDelta

	switch event.Type {
	case enums.ReputationEventComplaintUpheld:
		record.ComplaintCount++
	case enums.ReputationEventCompliment:
		record.ComplimentCount++
	case enums.ReputationEventRatingReceived:
		if event.Rating != nil {
			record.RatingSum += int64(*event.Rating)
			record.RatingCount++
		}
	case enums.ReputationEventWarning:
		record.WarningCount++
		f.applyWarningThresholds(record)
	case enums.ReputationEventDemotion:
		record.DemotionCount++
		record.ComplaintCount = 0
		record.RatingSum = 0
		record.RatingCount = 0
		if !isTerminal(record.Status) {
			record.Status = enums.ReputationStatusDemoted
		}
	case enums.ReputationEventFired:
		record.Status = enums.ReputationStatusFired
	case enums.ReputationEventBonus:
		record.ComplimentCount = 0
		record.RatingSum = 0
		record.RatingCount = 0
	case enums.ReputationEventPromotion:
		if !isTerminal(record.Status) && record.Role == enums.UserRoleCustomer {
			record.Status = enums.ReputationStatusVIP
		}
	}

	if record.Role == enums.UserRoleCustomer {
		f.applyCustomerScoreStatus(record)
	}
}

// applyCustomerScoreStatus promotes or blacklists a customer from the
// folded score. Blacklisting is terminal; a later score recovery does not
// lift it. VIP is not withdrawn on a score dip, only by warnings.
func (f folder) applyCustomerScoreStatus(record *models.ReputationRecord) {
	if isTerminal(record.Status) {
		return
	}
	switch {
	case record.Score <= f.cfg.BlacklistThreshold:
		record.Status = enums.ReputationStatusBlacklisted
	case record.Score >= f.cfg.VIPThreshold:
		record.Status = enums.ReputationStatusVIP
	}
}

func (f folder) applyWarningThresholds(record *models.ReputationRecord) {
	if isTerminal(record.Status) {
		return
	}
	if record.WarningCount >= f.cfg.WarningsToDeregister {
		record.Status = enums.ReputationStatusDeactivated
		return
	}
	if record.Status == enums.ReputationStatusVIP {
		if record.WarningCount >= f.cfg.WarningsToDemoteVIP {
			record.Status = enums.ReputationStatusNormal
			record.WarningCount = 0
		}
		return
	}
	record.Status = enums.ReputationStatusWarned
}

// needsDemotion reports whether a staff record has crossed the demotion
// bar: a failing average rating or too many upheld complaints.
func (f folder) needsDemotion(record *models.ReputationRecord) bool {
	if record.Role == enums.UserRoleCustomer || isTerminal(record.Status) {
		return false
	}
	if record.RatingCount > 0 && record.AverageRating() < f.cfg.DemotionRating {
		return true
	}
	return record.ComplaintCount >= f.cfg.ComplaintsToDemotion
}

// needsBonus reports whether a staff record has earned a bonus: a standout
// average rating or enough compliments.
func (f folder) needsBonus(record *models.ReputationRecord) bool {
	if record.Role == enums.UserRoleCustomer || isTerminal(record.Status) {
		return false
	}
	if record.RatingCount > 0 && record.AverageRating() > f.cfg.BonusRating {
		return true
	}
	return record.ComplimentCount >= f.cfg.ComplimentsToBonus
}
