package controllers

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// ListInventory handles GET /inventory.
func ListInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		input, err := parseListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOperation(ctx, "inventory.list")
		}
		items, err := svc.List(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, items)
	}
}

// UpdateInventory handles PUT /inventory/{product_id}.
func UpdateInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID := chi.URLParam(r, "product_id")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required"))
			return
		}

		var fields inventory.UpdateFields
		if err := validators.DecodeJSONBody(r, &fields); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProductID(logg.WithOperation(ctx, "inventory.update"), productID)
		}
		item, err := svc.Update(ctx, productID, fields)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

// BulkUpdateInventory handles PUT /inventory/bulk_update.
func BulkUpdateInventory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		items, err := validators.DecodeJSONArray[inventory.BulkUpdateItem](r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(logg.WithOperation(ctx, "inventory.bulk_update"), map[string]any{"items": len(items)})
		}
		result, err := svc.BulkUpdate(ctx, items)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

func parseListInput(r *http.Request) (inventory.ListInput, error) {
	page, err := validators.ParseQueryInt(r, "page", 0, 0, math.MaxInt32)
	if err != nil {
		return inventory.ListInput{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", 0, 0, math.MaxInt32)
	if err != nil {
		return inventory.ListInput{}, err
	}
	onlyInStock, err := validators.ParseQueryBool(r, "only_in_stock", false)
	if err != nil {
		return inventory.ListInput{}, err
	}
	sortBy, err := validators.ParseQueryEnum(r, "sort_by", string(inventory.SortQuantity), string(inventory.SortOrderCount))
	if err != nil {
		return inventory.ListInput{}, err
	}

	query := r.URL.Query()
	return inventory.ListInput{
		Filters: inventory.ListFilters{
			Category:    query.Get("category"),
			SubCategory: query.Get("sub_category"),
			OnlyInStock: onlyInStock,
		},
		Sort:       inventory.SortField(sortBy),
		Pagination: pagination.Params{Page: page, PerPage: perPage},
	}, nil
}
