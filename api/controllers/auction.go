package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/api/responses"
	"github.com/aislice/aislice-backend/api/validators"
	"github.com/aislice/aislice-backend/internal/auction"
	"github.com/aislice/aislice-backend/pkg/enums"
	pkgerrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/logger"
)

type placeBidRequest struct {
	AmountCents      int64  `json:"amount_cents" validate:"required,min=1"`
	EstimatedMinutes int    `json:"estimated_minutes" validate:"required,min=1"`
	Notes            string `json:"notes"`
}

type closeListingRequest struct {
	OverrideBidderID *uuid.UUID `json:"override_bidder_id"`
	Justification    string     `json:"justification"`
}

type updateProgressRequest struct {
	Progress string `json:"progress" validate:"required"`
}

// PlaceBid records the caller's offer on an open listing. Repeat bids
// supersede earlier ones at close time.
func PlaceBid(svc auction.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeBidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.PlaceBid(r.Context(), auction.PlaceBidInput{
			ListingID:        listingID,
			BidderID:         bidderID,
			AmountCents:      body.AmountCents,
			EstimatedMinutes: body.EstimatedMinutes,
			Notes:            body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bid)
	}
}

// CloseListing closes the auction window. With no body the lowest
// effective bid wins; a manager may override the winner with a
// justification.
func CloseListing(svc auction.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		callerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body closeListingRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		var override *auction.ManagerOverride
		if body.OverrideBidderID != nil {
			override = &auction.ManagerOverride{
				ManagerID:     callerID,
				BidderID:      *body.OverrideBidderID,
				Justification: body.Justification,
			}
		}

		listing, err := svc.CloseAndAssign(r.Context(), listingID, override)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// UpdateDeliveryProgress advances the assigned courier's delivery state.
func UpdateDeliveryProgress(svc auction.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		bidderID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProgressRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseDeliveryProgress(body.Progress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid progress value"))
			return
		}

		listing, err := svc.UpdateProgress(r.Context(), listingID, bidderID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListBids returns all bids on a listing, cheapest first.
func ListBids(svc auction.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bids, err := svc.Bids(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": bids})
	}
}

// GetListing returns one delivery listing.
func GetListing(svc auction.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auction service unavailable"))
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Get(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}
