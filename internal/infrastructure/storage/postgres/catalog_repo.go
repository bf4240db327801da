package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain/catalog"
)

const (
	productTable = "products"
	branchTable  = "branches"
)

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ catalog.Repository = (*CatalogRepo)(nil)

func NewCatalogRepo(txm *TxManager) *CatalogRepo {
	return &CatalogRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var productColumns = []string{"id", "item_code", "item_particulars", "selling_price", "created_at"}

func (r *CatalogRepo) GetProduct(ctx context.Context, productID id.ID) (catalog.Product, error) {
	q := r.builder.Select(productColumns...).From(productTable).Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Product{}, fmt.Errorf("build query: %w", err)
	}

	var product catalog.Product
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &product, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, apperror.NewNotFound("product", productID.String())
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (r *CatalogRepo) GetProducts(ctx context.Context, productIDs []id.ID) (map[id.ID]catalog.Product, error) {
	if len(productIDs) == 0 {
		return map[id.ID]catalog.Product{}, nil
	}

	q := r.builder.Select(productColumns...).From(productTable).Where(squirrel.Eq{"id": productIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	out := make(map[id.ID]catalog.Product, len(products))
	for _, product := range products {
		out[product.ID] = product
	}
	for _, productID := range productIDs {
		if _, ok := out[productID]; !ok {
			return nil, apperror.NewNotFound("product", productID.String())
		}
	}
	return out, nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	q := r.builder.Select(productColumns...).From(productTable).OrderBy("item_particulars")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []catalog.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}

func (r *CatalogRepo) GetBranch(ctx context.Context, branchID id.ID) (catalog.Branch, error) {
	q := r.builder.Select("id", "name", "location", "contact", "email").
		From(branchTable).
		Where(squirrel.Eq{"id": branchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return catalog.Branch{}, fmt.Errorf("build query: %w", err)
	}

	var branch catalog.Branch
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &branch, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Branch{}, apperror.NewNotFound("branch", branchID.String())
	}
	if err != nil {
		return catalog.Branch{}, fmt.Errorf("select branch: %w", err)
	}
	return branch, nil
}

func (r *CatalogRepo) ListBranches(ctx context.Context) ([]catalog.Branch, error) {
	q := r.builder.Select("id", "name", "location", "contact", "email").
		From(branchTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var branches []catalog.Branch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &branches, sql, args...); err != nil {
		return nil, fmt.Errorf("select branches: %w", err)
	}
	return branches, nil
}
