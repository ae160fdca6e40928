package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletCreator interface {
	CreateWallet(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
}

// Service resolves identities for the rest of the core. Authentication is
// upstream; this only owns the role tag, the active flag and the wallet
// bootstrap for customers.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Deactivate(ctx context.Context, userID uuid.UUID) error
	Reactivate(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    Repository
	tx      txRunner
	wallets walletCreator
}

// RegisterInput captures a new account.
type RegisterInput struct {
	Email string
	Name  string
	Role  enums.UserRole
}

// NewService wires the users service. Customers get a wallet on creation.
func NewService(repo Repository, tx txRunner, wallets walletCreator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("users tx runner required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet creator required")
	}
	return &service{repo: repo, tx: tx, wallets: wallets}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if !input.Role.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	user := &models.User{
		Email:    email,
		Name:     strings.TrimSpace(input.Name),
		Role:     input.Role,
		IsActive: true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return apperrors.New(apperrors.CodeConflict, "email already registered").
					WithDetails(map[string]any{"email": email})
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "create user")
		}
		if user.Role == enums.UserRoleCustomer {
			if _, err := s.wallets.CreateWallet(ctx, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found").
				WithDetails(map[string]any{"user_id": userID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find user")
	}
	return user, nil
}

func (s *service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	return s.setActive(ctx, userID, false)
}

func (s *service) Reactivate(ctx context.Context, userID uuid.UUID) error {
	return s.setActive(ctx, userID, true)
}

func (s *service) setActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if userID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	updated, err := s.repo.SetActive(ctx, userID, active)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "update active flag")
	}
	if !updated {
		return apperrors.New(apperrors.CodeNotFound, "user not found").
			WithDetails(map[string]any{"user_id": userID})
	}
	return nil
}
