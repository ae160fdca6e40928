package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/api/middleware"
	"github.com/aislice/aislice-backend/api/responses"
	"github.com/aislice/aislice-backend/api/validators"
	"github.com/aislice/aislice-backend/internal/answers"
	pkgerrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/logger"
)

type askQuestionRequest struct {
	Question  string `json:"question" validate:"required"`
	SessionID string `json:"session_id"`
}

type rateAnswerRequest struct {
	Rating   int    `json:"rating" validate:"required"`
	Feedback string `json:"feedback"`
}

type knowledgeEntryRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Category string `json:"category"`
	Tags     string `json:"tags"`
}

// optionalActorID resolves the caller when identity headers are present.
// Anonymous questions are allowed.
func optionalActorID(r *http.Request) (*uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return &id, nil
}

// AskQuestion routes a question to the knowledge base or the language
// model fallback.
func AskQuestion(svc answers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "answers service unavailable"))
			return
		}

		userID, err := optionalActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body askQuestionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Answer(r.Context(), answers.AnswerInput{
			UserID:    userID,
			Question:  validators.SanitizeString(body.Question, 2000),
			SessionID: body.SessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RateAnswer rates a knowledge-base answer by chat log id.
func RateAnswer(svc answers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "answers service unavailable"))
			return
		}

		chatLogID, err := pathUUID(r, "chatLogId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rateAnswerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rating, err := svc.RateAnswer(r.Context(), answers.RateAnswerInput{
			ChatLogID: chatLogID,
			Rating:    body.Rating,
			Feedback:  validators.SanitizeString(body.Feedback, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rating)
	}
}

// RecommendDishes returns a ranked dish list for the caller.
func RecommendDishes(svc answers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "answers service unavailable"))
			return
		}

		userID, err := optionalActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Recommend(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AddKnowledgeEntry creates a manager-authored question/answer pair.
func AddKnowledgeEntry(svc answers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "answers service unavailable"))
			return
		}

		authorID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body knowledgeEntryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.AddKnowledgeEntry(r.Context(), answers.KnowledgeEntryInput{
			Question:  body.Question,
			Answer:    body.Answer,
			Category:  body.Category,
			Tags:      body.Tags,
			CreatedBy: authorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
