package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/angelmondragon/stockroom-backend/pkg/validation"
	"gorm.io/gorm"
)

// Service exposes the inventory read and update operations.
type Service interface {
	List(ctx context.Context, input ListInput) ([]ItemDTO, error)
	Update(ctx context.Context, productID string, fields UpdateFields) (*ItemDTO, error)
	BulkUpdate(ctx context.Context, items []BulkUpdateItem) (*BulkUpdateDTO, error)
}

// UpdateFields holds the optional mutable columns of an item. Nil means unchanged.
type UpdateFields struct {
	ProductName *string `json:"product_name" validate:"omitnil,min=1"`
	Quantity    *int    `json:"quantity" validate:"omitnil,min=0,max=2147483647"`
	Category    *string `json:"category" validate:"omitnil,min=1"`
	SubCategory *string `json:"sub_category" validate:"omitnil,min=1"`
}

// BulkUpdateItem is one element of a bulk update request.
type BulkUpdateItem struct {
	ProductID string `json:"product_id" validate:"required"`
	UpdateFields
}

// columns returns the present fields keyed by column name.
func (f UpdateFields) columns() map[string]any {
	cols := map[string]any{}
	if f.ProductName != nil {
		cols["product_name"] = *f.ProductName
	}
	if f.Quantity != nil {
		cols["quantity"] = *f.Quantity
	}
	if f.Category != nil {
		cols["category"] = *f.Category
	}
	if f.SubCategory != nil {
		cols["sub_category"] = *f.SubCategory
	}
	return cols
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	dbClient txRunner
	limits   pagination.Limits
	logg     *logger.Logger
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, dbClient txRunner, limits pagination.Limits, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		limits:   limits,
		logg:     logg,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]ItemDTO, error) {
	page, err := s.limits.Normalize(input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if _, err := ParseSortField(string(input.Sort)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	rows, err := s.repo.List(ctx, input.Filters, input.Sort, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	orders, err := s.repo.OrdersByProductIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
	}

	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		count := row.OrderCount
		items = append(items, toItemDTO(row.Item(), orders[row.ProductID], &count))
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, productID string, fields UpdateFields) (*ItemDTO, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if err := validation.Struct(fields); err != nil {
		return nil, err
	}

	var out *ItemDTO
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item, err := applyUpdate(ctx, txRepo, productID, fields)
		if err != nil {
			return err
		}
		orders, err := txRepo.OrdersByProductIDs(ctx, []string{productID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
		}
		dto := toItemDTO(*item, orders[productID], nil)
		out = &dto
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "update inventory item")
	}
	return out, nil
}

func (s *service) BulkUpdate(ctx context.Context, items []BulkUpdateItem) (*BulkUpdateDTO, error) {
	for i, item := range items {
		if err := validation.Element(i, item); err != nil {
			return nil, err
		}
	}

	result := &BulkUpdateDTO{
		Message:   BulkUpdateMessage,
		Succeeded: make([]string, 0, len(items)),
		Failed:    make([]string, 0),
	}

	for _, item := range items {
		err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := applyUpdate(ctx, s.repo.WithTx(tx), item.ProductID, item.UpdateFields)
			return err
		})
		switch {
		case err == nil:
			result.Succeeded = append(result.Succeeded, item.ProductID)
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			result.Failed = append(result.Failed, item.ProductID)
			s.logg.Warn(s.logg.WithProductID(ctx, item.ProductID), "bulk update skipped unknown product")
		default:
			return nil, asTyped(err, "bulk update inventory")
		}
	}

	return result, nil
}

// applyUpdate loads, mutates and re-reads one item on the provided repository.
func applyUpdate(ctx context.Context, r *Repository, productID string, fields UpdateFields) (*models.InventoryItem, error) {
	item, err := r.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory item")
	}

	cols := fields.columns()
	if len(cols) == 0 {
		return item, nil
	}
	if err := r.UpdateColumns(ctx, productID, cols); err != nil {
		if db.IsNumericOutOfRange(err) || db.IsCheckViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "value out of range for inventory item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update inventory item")
	}

	item, err = r.FindByProductID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload inventory item")
	}
	return item, nil
}

func asTyped(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
