package controllers

import (
	"net/http"

	"github.com/aislice/aislice-backend/api/responses"
	"github.com/aislice/aislice-backend/api/validators"
	"github.com/aislice/aislice-backend/internal/menu"
	pkgerrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/logger"
)

type createDishRequest struct {
	Name       string   `json:"name" validate:"required,min=2,max=160"`
	PriceCents int64    `json:"price_cents" validate:"required,min=1"`
	IsSpecial  bool     `json:"is_special"`
	Tags       []string `json:"tags"`
}

type dishAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// CreateDish adds a dish to the caller's menu.
func CreateDish(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		chefID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createDishRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dish, err := svc.CreateDish(r.Context(), menu.CreateDishInput{
			ChefID:     chefID,
			Name:       body.Name,
			PriceCents: body.PriceCents,
			IsSpecial:  body.IsSpecial,
			Tags:       body.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dish)
	}
}

// ListDishes returns every available dish.
func ListDishes(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		dishes, err := svc.ListAvailable(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": dishes})
	}
}

// ListMyDishes returns the caller's dishes, available or not.
func ListMyDishes(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		chefID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dishes, err := svc.ListByChef(r.Context(), chefID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": dishes})
	}
}

// GetDish returns one dish by id.
func GetDish(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		dishID, err := pathUUID(r, "dishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dish, err := svc.GetDish(r.Context(), dishID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dish)
	}
}

// SetDishAvailability toggles whether a dish can be ordered.
func SetDishAvailability(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}

		dishID, err := pathUUID(r, "dishId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body dishAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetAvailability(r.Context(), dishID, *body.Available); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
