package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/api/responses"
	"github.com/aislice/aislice-backend/api/validators"
	"github.com/aislice/aislice-backend/internal/reputation"
	"github.com/aislice/aislice-backend/pkg/enums"
	pkgerrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/logger"
)

type fileComplaintRequest struct {
	SubjectID   uuid.UUID  `json:"subject_id" validate:"required"`
	OrderID     *uuid.UUID `json:"order_id"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
}

type fileComplimentRequest struct {
	ReceiverID uuid.UUID  `json:"receiver_id" validate:"required"`
	OrderID    *uuid.UUID `json:"order_id"`
	Title      string     `json:"title" validate:"required"`
	Body       string     `json:"body"`
}

type disputeRequest struct {
	Narrative string `json:"narrative" validate:"required"`
}

type decideRequest struct {
	Decision string `json:"decision" validate:"required"`
	Notes    string `json:"notes"`
}

// FileComplaint opens a grievance against another user.
func FileComplaint(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		complainantID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body fileComplaintRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaint, err := svc.FileComplaint(r.Context(), reputation.FileComplaintInput{
			ComplainantID: complainantID,
			SubjectID:     body.SubjectID,
			OrderID:       body.OrderID,
			Title:         validators.SanitizeString(body.Title, 200),
			Description:   validators.SanitizeString(body.Description, 4000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, complaint)
	}
}

// FileCompliment records praise for another user.
func FileCompliment(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		giverID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body fileComplimentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		compliment, err := svc.FileCompliment(r.Context(), reputation.FileComplimentInput{
			GiverID:    giverID,
			ReceiverID: body.ReceiverID,
			OrderID:    body.OrderID,
			Title:      validators.SanitizeString(body.Title, 200),
			Body:       validators.SanitizeString(body.Body, 4000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, compliment)
	}
}

// DisputeComplaint attaches the subject's narrative to an open complaint.
func DisputeComplaint(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		subjectID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaintID, err := pathUUID(r, "complaintId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaint, err := svc.Dispute(r.Context(), reputation.DisputeInput{
			ComplaintID: complaintID,
			SubjectID:   subjectID,
			Narrative:   validators.SanitizeString(body.Narrative, 4000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, complaint)
	}
}

// DecideComplaint records a manager's terminal ruling.
func DecideComplaint(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		managerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaintID, err := pathUUID(r, "complaintId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body decideRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision := enums.ManagerDecision(body.Decision)
		if !decision.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid decision value"))
			return
		}

		complaint, err := svc.Decide(r.Context(), reputation.DecideInput{
			ComplaintID: complaintID,
			ManagerID:   managerID,
			Decision:    decision,
			Notes:       validators.SanitizeString(body.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, complaint)
	}
}

// GetReputationStatus returns the derived standing for a user.
func GetReputationStatus(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Status(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ListReputationEvents returns a user's full reputation log.
func ListReputationEvents(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.Events(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": events})
	}
}

// ListComplaintsForUser returns complaints where the user is the subject.
func ListComplaintsForUser(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaints, err := svc.ComplaintsFor(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": complaints})
	}
}

// ReplayReputation rebuilds a user's derived standing from the event log.
func ReplayReputation(svc reputation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reputation service unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Replay(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}
