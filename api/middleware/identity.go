package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/api/responses"
	"github.com/aislice/aislice-backend/pkg/enums"
	pkgerrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/logger"
)

const (
	userIDHeader = "X-User-ID"
	roleHeader   = "X-User-Role"
)

// Identity reads the upstream-authenticated identity headers into the
// request context. The gateway in front of this service owns
// authentication; these headers are trusted as-is.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := r.Header.Get(userIDHeader); userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"user_id": userID})
				}
			}
			if role := r.Header.Get(roleHeader); role != "" {
				ctx = WithRole(ctx, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests without a parseable user identity.
func RequireIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "user identity header required"))
				return
			}
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id header"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole limits a route subtree to the named roles.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.UserRole(RoleFromContext(r.Context()))
			if _, ok := allowed[role]; !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeEligibility, "role not permitted for this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
