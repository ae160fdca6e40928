package reputation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
)

// FileComplaintInput opens a grievance against a user. Weight carries the
// complainant's VIP multiplier, resolved here from their current status.
type FileComplaintInput struct {
	ComplainantID uuid.UUID
	SubjectID     uuid.UUID
	OrderID       *uuid.UUID
	Title         string
	Description   string
}

// DisputeInput attaches the subject's one narrative to an open complaint.
type DisputeInput struct {
	ComplaintID uuid.UUID
	SubjectID   uuid.UUID
	Narrative   string
}

// DecideInput is a manager's terminal ruling on a complaint.
type DecideInput struct {
	ComplaintID uuid.UUID
	ManagerID   uuid.UUID
	Decision    enums.ManagerDecision
	Notes       string
}

// FileComplimentInput records praise for a user.
type FileComplimentInput struct {
	GiverID    uuid.UUID
	ReceiverID uuid.UUID
	OrderID    *uuid.UUID
	Title      string
	Body       string
}

// FileComplaint opens a complaint. Filing never moves scores; only the
// manager decision path does.
func (s *service) FileComplaint(ctx context.Context, input FileComplaintInput) (*models.Complaint, error) {
	if input.ComplainantID == uuid.Nil || input.SubjectID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "complainant and subject ids are required")
	}
	if input.ComplainantID == input.SubjectID {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot complain about yourself")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title and description are required")
	}

	weight, err := s.originWeight(ctx, input.ComplainantID)
	if err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		ComplainantID: input.ComplainantID,
		SubjectID:     input.SubjectID,
		OrderID:       input.OrderID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Status:        enums.ComplaintStatusOpen,
		Weight:        weight,
	}
	if err := s.repo.CreateComplaint(ctx, complaint); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create complaint")
	}
	return complaint, nil
}

// Dispute lets the subject attach exactly one narrative. A second dispute
// attempt, or disputing a decided complaint, is rejected.
func (s *service) Dispute(ctx context.Context, input DisputeInput) (*models.Complaint, error) {
	if input.ComplaintID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "complaint id is required")
	}
	if strings.TrimSpace(input.Narrative) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "dispute narrative is required")
	}

	var complaint *models.Complaint
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindComplaintByID(ctx, input.ComplaintID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "complaint not found").
					WithDetails(map[string]any{"complaint_id": input.ComplaintID})
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "find complaint")
		}
		if found.SubjectID != input.SubjectID {
			return apperrors.New(apperrors.CodeEligibility, "only the complaint subject may dispute")
		}

		moved, err := repo.TransitionComplaint(ctx, found.ID, enums.ComplaintStatusOpen, enums.ComplaintStatusDisputed)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "transition complaint")
		}
		if !moved {
			return apperrors.New(apperrors.CodeStateConflict, "complaint is not open for dispute").
				WithDetails(map[string]any{"status": found.Status})
		}

		narrative := strings.TrimSpace(input.Narrative)
		found.Status = enums.ComplaintStatusDisputed
		found.DisputeNarrative = &narrative
		if err := repo.SaveComplaint(ctx, found); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "save dispute narrative")
		}
		complaint = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// Decide applies a manager's ruling. Resolve upholds the complaint and is
// the only path that records a complaint_upheld event; warn additionally
// issues a warning; reject dismisses without score impact.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.Complaint, error) {
	if input.ComplaintID == uuid.Nil || input.ManagerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "complaint and manager ids are required")
	}
	if !input.Decision.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid manager decision")
	}

	manager, err := s.users.FindByID(ctx, input.ManagerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "manager not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find manager")
	}
	if manager.Role != enums.UserRoleManager {
		return nil, apperrors.New(apperrors.CodeEligibility, "only managers decide complaints")
	}

	complaint, err := s.repo.FindComplaintByID(ctx, input.ComplaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "complaint not found").
				WithDetails(map[string]any{"complaint_id": input.ComplaintID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find complaint")
	}
	if complaint.Status != enums.ComplaintStatusOpen && complaint.Status != enums.ComplaintStatusDisputed {
		return nil, apperrors.New(apperrors.CodeStateConflict, "complaint already decided").
			WithDetails(map[string]any{"status": complaint.Status})
	}

	target := decisionStatus(input.Decision)
	moved, err := s.repo.TransitionComplaint(ctx, complaint.ID, complaint.Status, target)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "transition complaint")
	}
	if !moved {
		return nil, apperrors.New(apperrors.CodeStateConflict, "complaint already decided")
	}

	now := time.Now()
	notes := strings.TrimSpace(input.Notes)
	complaint.Status = target
	complaint.ManagerID = &input.ManagerID
	complaint.ResolvedAt = &now
	if notes != "" {
		complaint.ManagerNotes = &notes
	}
	if err := s.repo.SaveComplaint(ctx, complaint); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "save decision")
	}

	switch input.Decision {
	case enums.ManagerDecisionResolve:
		_, err = s.RecordEvent(ctx, RecordEventInput{
			UserID:    complaint.SubjectID,
			Type:      enums.ReputationEventComplaintUpheld,
			Weight:    complaint.Weight,
			Details:   "complaint upheld: " + complaint.Title,
			CreatedBy: &input.ManagerID,
		})
	case enums.ManagerDecisionWarn:
		_, err = s.RecordEvent(ctx, RecordEventInput{
			UserID:    complaint.SubjectID,
			Type:      enums.ReputationEventWarning,
			Details:   "warning issued on complaint: " + complaint.Title,
			CreatedBy: &input.ManagerID,
		})
	}
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// FileCompliment records praise, credits the receiver, and cancels the
// receiver's oldest open complaint if one exists.
func (s *service) FileCompliment(ctx context.Context, input FileComplimentInput) (*models.Compliment, error) {
	if input.GiverID == uuid.Nil || input.ReceiverID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "giver and receiver ids are required")
	}
	if input.GiverID == input.ReceiverID {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot compliment yourself")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title is required")
	}

	weight, err := s.originWeight(ctx, input.GiverID)
	if err != nil {
		return nil, err
	}

	compliment := &models.Compliment{
		GiverID:    input.GiverID,
		ReceiverID: input.ReceiverID,
		OrderID:    input.OrderID,
		Title:      strings.TrimSpace(input.Title),
		Body:       strings.TrimSpace(input.Body),
		Weight:     weight,
	}
	if err := s.repo.CreateCompliment(ctx, compliment); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create compliment")
	}

	// A compliment cancels the receiver's oldest open complaint. Losing the
	// transition race means something else already moved it, which is fine.
	open, err := s.repo.FindOldestOpenComplaint(ctx, input.ReceiverID)
	if err == nil {
		if _, terr := s.repo.TransitionComplaint(ctx, open.ID, enums.ComplaintStatusOpen, enums.ComplaintStatusDismissed); terr != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, terr, "cancel open complaint")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find open complaint")
	}

	if _, err := s.RecordEvent(ctx, RecordEventInput{
		UserID:    input.ReceiverID,
		Type:      enums.ReputationEventCompliment,
		Weight:    weight,
		Details:   "compliment: " + compliment.Title,
		CreatedBy: &input.GiverID,
	}); err != nil {
		return nil, err
	}
	return compliment, nil
}

func (s *service) ComplaintsFor(ctx context.Context, subjectID uuid.UUID) ([]models.Complaint, error) {
	if subjectID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "subject id is required")
	}
	complaints, err := s.repo.ListComplaintsBySubject(ctx, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list complaints")
	}
	return complaints, nil
}

// originWeight resolves the VIP multiplier for complaint and compliment
// filers at construction time, so later status changes never rewrite
// historical weights.
func (s *service) originWeight(ctx context.Context, userID uuid.UUID) (int, error) {
	record, err := s.repo.FindRecordByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 1, nil
		}
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "find filer reputation")
	}
	if record.Status == enums.ReputationStatusVIP {
		return s.fold.cfg.VIPWeight, nil
	}
	return 1, nil
}

func decisionStatus(decision enums.ManagerDecision) enums.ComplaintStatus {
	switch decision {
	case enums.ManagerDecisionResolve:
		return enums.ComplaintStatusUpheld
	case enums.ManagerDecisionWarn:
		return enums.ComplaintStatusWarned
	default:
		return enums.ComplaintStatusDismissed
	}
}
