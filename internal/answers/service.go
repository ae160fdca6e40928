package answers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/llm"
	"github.com/aislice/aislice-backend/pkg/metrics"
	"github.com/aislice/aislice-backend/pkg/outbox"
	"github.com/aislice/aislice-backend/pkg/outbox/payloads"
)

const answerSystemPrompt = "You are a helpful assistant for a restaurant " +
	"ordering platform. Answer briefly and only about food, orders, and delivery."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userReader interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// Service answers questions from the local knowledge base, falling back
// to the completion endpoint, and recommends dishes.
type Service interface {
	Answer(ctx context.Context, input AnswerInput) (*AnswerResult, error)
	RateAnswer(ctx context.Context, input RateAnswerInput) (*models.AnswerRating, error)
	Recommend(ctx context.Context, userID *uuid.UUID) ([]Recommendation, error)
	AddKnowledgeEntry(ctx context.Context, input KnowledgeEntryInput) (*models.KnowledgeEntry, error)
}

// AnswerInput is one asked question with optional identity and session.
type AnswerInput struct {
	UserID    *uuid.UUID
	Question  string
	SessionID string
}

// AnswerResult is the routed answer. Only knowledge-base answers are
// ratable; completion answers are logged for analytics only.
type AnswerResult struct {
	ChatLogID        uuid.UUID          `json:"chat_log_id"`
	Answer           string             `json:"answer"`
	Source           enums.AnswerSource `json:"source"`
	Ratable          bool               `json:"ratable"`
	KnowledgeEntryID *uuid.UUID         `json:"knowledge_entry_id,omitempty"`
}

// RateAnswerInput rates a previously returned knowledge-base answer.
type RateAnswerInput struct {
	ChatLogID uuid.UUID
	Rating    int
	Feedback  string
}

// KnowledgeEntryInput is a manager-authored question/answer pair.
type KnowledgeEntryInput struct {
	Question  string
	Answer    string
	Category  string
	Tags      string
	CreatedBy uuid.UUID
}

// ServiceParams bundles the answer router's collaborators.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Completer llm.Completer
	Users     userReader
	Recommend RecommendParams
	Metrics   *metrics.DomainMetrics
	Config    config.AnswersConfig
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	completer llm.Completer
	users     userReader
	rec       recommender
	metrics   *metrics.DomainMetrics
	cfg       config.AnswersConfig
	now       func() time.Time
}

// NewService wires the answer router.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("answers repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("answers tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Completer == nil {
		return nil, fmt.Errorf("completion client required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if params.Recommend.Dishes == nil {
		return nil, fmt.Errorf("dish lister required")
	}
	if params.Recommend.Orders == nil {
		return nil, fmt.Errorf("order history reader required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		completer: params.Completer,
		users:     params.Users,
		rec: recommender{
			dishes: params.Recommend.Dishes,
			orders: params.Recommend.Orders,
			cache:  params.Recommend.Cache,
			topN:   params.Config.RecommendTopN,
			ttl:    params.Config.RecommendCacheTTL,
		},
		metrics: params.Metrics,
		cfg:     params.Config,
		now:     time.Now,
	}, nil
}

// Answer routes a question: knowledge base first, completion fallback.
// Every served answer leaves a chat log row recording its provenance.
func (s *service) Answer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "question is required")
	}

	entries, err := s.repo.ListUnflaggedEntries(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load knowledge base")
	}

	if entry, ok := bestMatch(question, entries, s.cfg.KBMatchThreshold); ok {
		log := &models.ChatLog{
			UserID:           input.UserID,
			Question:         question,
			Answer:           entry.Answer,
			Source:           enums.AnswerSourceLocalKB,
			KnowledgeEntryID: &entry.ID,
		}
		if session := strings.TrimSpace(input.SessionID); session != "" {
			log.SessionID = &session
		}
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.CreateChatLog(ctx, log); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "create chat log")
			}
			if err := repo.IncrementTimesUsed(ctx, entry.ID); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "bump entry usage")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.metrics.IncAnswerServed(string(enums.AnswerSourceLocalKB))
		return &AnswerResult{
			ChatLogID:        log.ID,
			Answer:           entry.Answer,
			Source:           enums.AnswerSourceLocalKB,
			Ratable:          true,
			KnowledgeEntryID: &entry.ID,
		}, nil
	}

	started := s.now()
	resp, err := s.completer.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: question},
		},
	})
	s.metrics.ObserveLLMDuration(s.now().Sub(started))
	if err != nil {
		return nil, err
	}

	log := &models.ChatLog{
		UserID:   input.UserID,
		Question: question,
		Answer:   resp.Content,
		Source:   enums.AnswerSourceLLM,
	}
	if resp.Model != "" {
		model := resp.Model
		log.LLMModel = &model
	}
	if session := strings.TrimSpace(input.SessionID); session != "" {
		log.SessionID = &session
	}
	if err := s.repo.CreateChatLog(ctx, log); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create chat log")
	}
	s.metrics.IncAnswerServed(string(enums.AnswerSourceLLM))
	return &AnswerResult{
		ChatLogID: log.ID,
		Answer:    resp.Content,
		Source:    enums.AnswerSourceLLM,
		Ratable:   false,
	}, nil
}

// RateAnswer records one star rating per knowledge-base answer. A rating
// of one star flags the entry for manager review.
func (s *service) RateAnswer(ctx context.Context, input RateAnswerInput) (*models.AnswerRating, error) {
	if input.ChatLogID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "chat log id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.New(apperrors.CodeValidation, "rating must be an integer from 1 to 5")
	}

	log, err := s.repo.FindChatLogByID(ctx, input.ChatLogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "chat log not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find chat log")
	}
	if !log.Source.Ratable() || log.KnowledgeEntryID == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "only knowledge base answers can be rated")
	}

	rated, err := s.repo.HasRatingForChatLog(ctx, input.ChatLogID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "check existing rating")
	}
	if rated {
		return nil, apperrors.New(apperrors.CodeConflict, "answer already rated")
	}

	rating := &models.AnswerRating{
		ChatLogID:        input.ChatLogID,
		KnowledgeEntryID: *log.KnowledgeEntryID,
		Rating:           input.Rating,
	}
	if feedback := strings.TrimSpace(input.Feedback); feedback != "" {
		rating.Feedback = &feedback
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateRating(ctx, rating); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "create rating")
		}
		if err := repo.AddEntryRating(ctx, rating.KnowledgeEntryID, input.Rating); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "fold entry rating")
		}
		if input.Rating > 1 {
			return nil
		}
		if err := repo.FlagEntry(ctx, rating.KnowledgeEntryID); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "flag entry")
		}
		entry, err := repo.FindEntryByID(ctx, rating.KnowledgeEntryID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "reload entry")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventKBEntryFlagged,
			AggregateType: enums.AggregateKnowledgeEntry,
			AggregateID:   entry.ID,
			Data: payloads.KBEntryFlaggedEvent{
				EntryID:   entry.ID,
				FlagCount: entry.FlagCount,
				Rating:    input.Rating,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// Recommend scores the available menu for a user and time of day.
func (s *service) Recommend(ctx context.Context, userID *uuid.UUID) ([]Recommendation, error) {
	return s.rec.recommend(ctx, userID, s.now())
}

// AddKnowledgeEntry lets a manager author a new question/answer pair.
func (s *service) AddKnowledgeEntry(ctx context.Context, input KnowledgeEntryInput) (*models.KnowledgeEntry, error) {
	question := strings.TrimSpace(input.Question)
	answer := strings.TrimSpace(input.Answer)
	if question == "" || answer == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "question and answer are required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "author id is required")
	}

	author, err := s.users.FindByID(ctx, input.CreatedBy)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "author not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find author")
	}
	if author.Role != enums.UserRoleManager {
		return nil, apperrors.New(apperrors.CodeEligibility, "only managers can author knowledge entries")
	}

	entry := &models.KnowledgeEntry{
		Question:  question,
		Answer:    answer,
		CreatedBy: &input.CreatedBy,
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		entry.Category = &category
	}
	if tags := strings.TrimSpace(strings.ToLower(input.Tags)); tags != "" {
		entry.Tags = &tags
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create entry")
	}
	return entry, nil
}
