package reputation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/outbox"
	"github.com/aislice/aislice-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userReader interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Service folds immutable reputation events into per-user records and owns
// the complaint and compliment flows that feed the event log.
type Service interface {
	RecordEvent(ctx context.Context, input RecordEventInput) (*models.ReputationRecord, error)
	Status(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error)
	Replay(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error)
	Events(ctx context.Context, userID uuid.UUID) ([]models.ReputationEvent, error)

	FileComplaint(ctx context.Context, input FileComplaintInput) (*models.Complaint, error)
	Dispute(ctx context.Context, input DisputeInput) (*models.Complaint, error)
	Decide(ctx context.Context, input DecideInput) (*models.Complaint, error)
	FileCompliment(ctx context.Context, input FileComplimentInput) (*models.Compliment, error)
	ComplaintsFor(ctx context.Context, subjectID uuid.UUID) ([]models.Complaint, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	users  userReader
	fold   folder
}

// RecordEventInput is one fact to append to a user's reputation log.
// Weight is resolved by the caller at construction time; VIP-originated
// complaints and compliments arrive with weight 2.
type RecordEventInput struct {
	UserID    uuid.UUID
	Type      enums.ReputationEventType
	Weight    int
	Rating    *int
	Details   string
	CreatedBy *uuid.UUID
}

// NewService wires the reputation engine.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, users userReader, cfg config.ReputationConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reputation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("reputation tx runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		users:  users,
		fold:   folder{cfg: cfg},
	}, nil
}

func (s *service) RecordEvent(ctx context.Context, input RecordEventInput) (*models.ReputationRecord, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid event type %q", input.Type))
	}
	if input.Type == enums.ReputationEventRatingReceived {
		if input.Rating == nil || *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperrors.New(apperrors.CodeValidation, "rating must be an integer from 1 to 5")
		}
	}
	weight := input.Weight
	if weight <= 0 {
		weight = 1
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found").
				WithDetails(map[string]any{"user_id": input.UserID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find user")
	}

	var record *models.ReputationRecord
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err = s.loadOrCreateRecord(ctx, repo, user)
		if err != nil {
			return err
		}
		before := record.Status

		event := &models.ReputationEvent{
			UserID:     input.UserID,
			Type:       input.Type,
			ScoreDelta: BaseDelta(input.Type) * weight,
			Weight:     weight,
			Rating:     input.Rating,
			Details:    input.Details,
			CreatedBy:  input.CreatedBy,
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "append reputation event")
		}
		s.fold.apply(record, event)

		bonusAwarded, err := s.applyDerivedEvents(ctx, repo, record)
		if err != nil {
			return err
		}

		if err := repo.SaveRecord(ctx, record); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "save reputation record")
		}
		return s.emitTransitions(ctx, tx, record, before, bonusAwarded)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// loadOrCreateRecord returns the user's record locked for the rest of the
// transaction. Concurrent folds for the same user queue on the row lock, so
// the stored record always equals the event-log fold.
func (s *service) loadOrCreateRecord(ctx context.Context, repo Repository, user *models.User) (*models.ReputationRecord, error) {
	record, err := repo.FindRecordByUserForUpdate(ctx, user.ID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find reputation record")
	}

	record = &models.ReputationRecord{
		UserID: user.ID,
		Role:   user.Role,
		Status: enums.ReputationStatusNormal,
	}
	created, err := repo.CreateRecordIfAbsent(ctx, record)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create reputation record")
	}
	if created {
		return record, nil
	}

	// Lost the insert race; lock the row the winner created.
	record, err = repo.FindRecordByUserForUpdate(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find reputation record")
	}
	return record, nil
}

// applyDerivedEvents appends the demotion/fired/bonus rows a threshold
// crossing produces. Derived rows live in the same log, so Replay folds
// them like any other event.
func (s *service) applyDerivedEvents(ctx context.Context, repo Repository, record *models.ReputationRecord) (bool, error) {
	if s.fold.needsDemotion(record) {
		demotion := &models.ReputationEvent{
			UserID:     record.UserID,
			Type:       enums.ReputationEventDemotion,
			ScoreDelta: BaseDelta(enums.ReputationEventDemotion),
			Weight:     1,
			Details:    "threshold demotion",
		}
		if err := repo.CreateEvent(ctx, demotion); err != nil {
			return false, apperrors.Wrap(apperrors.CodeInternal, err, "append demotion event")
		}
		s.fold.apply(record, demotion)

		if record.DemotionCount >= s.fold.cfg.DemotionsToFire {
			fired := &models.ReputationEvent{
				UserID:  record.UserID,
				Type:    enums.ReputationEventFired,
				Weight:  1,
				Details: "second demotion",
			}
			if err := repo.CreateEvent(ctx, fired); err != nil {
				return false, apperrors.Wrap(apperrors.CodeInternal, err, "append fired event")
			}
			s.fold.apply(record, fired)
		}
		return false, nil
	}

	if s.fold.needsBonus(record) {
		bonus := &models.ReputationEvent{
			UserID:     record.UserID,
			Type:       enums.ReputationEventBonus,
			ScoreDelta: BaseDelta(enums.ReputationEventBonus),
			Weight:     1,
			Details:    "threshold bonus",
		}
		if err := repo.CreateEvent(ctx, bonus); err != nil {
			return false, apperrors.Wrap(apperrors.CodeInternal, err, "append bonus event")
		}
		s.fold.apply(record, bonus)
		return true, nil
	}
	return false, nil
}

func (s *service) emitTransitions(ctx context.Context, tx *gorm.DB, record *models.ReputationRecord, before enums.ReputationStatus, bonusAwarded bool) error {
	if record.Status == enums.ReputationStatusBlacklisted && before != enums.ReputationStatusBlacklisted {
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerBlacklisted,
			AggregateType: enums.AggregateReputationRecord,
			AggregateID:   record.ID,
			Data: payloads.CustomerBlacklistedEvent{
				UserID: record.UserID,
				Score:  record.Score,
			},
		})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "emit blacklist event")
		}
	}
	if record.Status == enums.ReputationStatusVIP && before != enums.ReputationStatusVIP {
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerPromoted,
			AggregateType: enums.AggregateReputationRecord,
			AggregateID:   record.ID,
			Data: payloads.CustomerPromotedEvent{
				UserID: record.UserID,
				Score:  record.Score,
			},
		})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "emit promotion event")
		}
	}
	if bonusAwarded {
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStaffBonusAwarded,
			AggregateType: enums.AggregateReputationRecord,
			AggregateID:   record.ID,
			Data: payloads.StaffBonusAwardedEvent{
				UserID:        record.UserID,
				Role:          record.Role,
				AverageRating: record.AverageRating(),
			},
		})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "emit bonus event")
		}
	}
	return nil
}

// Status returns the folded record, or a default NORMAL view for users
// with no events yet. The default is not persisted.
func (s *service) Status(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	record, err := s.repo.FindRecordByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find reputation record")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found").
				WithDetails(map[string]any{"user_id": userID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find user")
	}
	return &models.ReputationRecord{
		UserID: userID,
		Role:   user.Role,
		Status: enums.ReputationStatusNormal,
	}, nil
}

// Replay refolds the full event log from zero. The result matches the
// stored record field for field; anything else is a folding bug.
func (s *service) Replay(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	stored, err := s.repo.FindRecordByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "no reputation record for user").
				WithDetails(map[string]any{"user_id": userID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find reputation record")
	}

	events, err := s.repo.ListEventsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list reputation events")
	}

	replayed := &models.ReputationRecord{
		ID:     stored.ID,
		UserID: stored.UserID,
		Role:   stored.Role,
		Status: enums.ReputationStatusNormal,
	}
	for i := range events {
		s.fold.apply(replayed, &events[i])
	}
	return replayed, nil
}

func (s *service) Events(ctx context.Context, userID uuid.UUID) ([]models.ReputationEvent, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	events, err := s.repo.ListEventsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list reputation events")
	}
	return events, nil
}
