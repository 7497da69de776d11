package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ProductInput holds the fields required to create a product.
type ProductInput struct {
	SKU           string
	Name          string
	Description   string
	CategoryID    *int
	UnitOfMeasure string
}

// CatalogService provides product master data operations.
type CatalogService interface {
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListProducts(ctx context.Context, visibility Visibility) ([]Product, error)
	// DeactivateProduct soft-deletes the product. Its stock and ledger rows are kept.
	DeactivateProduct(ctx context.Context, id int) error
	// AssignCategory sets or, with nil, clears the product's category.
	AssignCategory(ctx context.Context, productID int, categoryID *int) (*Product, error)
}

type catalogService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewCatalogService(pool *pgxpool.Pool, logger *zap.Logger) CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{pool: pool, logger: logger}
}

const productColumns = "id, sku, name, description, category_id, unit_of_measure, is_active, created_at"

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" {
		return nil, validationf("product SKU is required")
	}
	if name == "" {
		return nil, validationf("product name is required")
	}
	uom := strings.TrimSpace(in.UnitOfMeasure)
	if uom == "" {
		uom = "unit"
	}

	var p *Product
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if in.CategoryID != nil {
			if _, err := fetchCategory(ctx, tx, *in.CategoryID); err != nil {
				return err
			}
		}
		var err error
		p, err = scanProduct(tx.QueryRow(ctx, `
			INSERT INTO products (sku, name, description, category_id, unit_of_measure)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+productColumns,
			sku, name, nullableText(in.Description), in.CategoryID, uom,
		))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return conflictf("product SKU %q already exists", sku)
			}
			return storageErr(fmt.Sprintf("insert product %s", sku), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Int("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int) (*Product, error) {
	return requireProduct(ctx, s.pool, id)
}

func (s *catalogService) ListProducts(ctx context.Context, visibility Visibility) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1::boolean IS NULL OR is_active = $1)
		ORDER BY sku`, visibility.activeArg())
	if err != nil {
		return nil, storageErr("query products", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storageErr("scan product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate products", err)
	}
	return products, nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE products SET is_active = false WHERE id = $1", id)
	if err != nil {
		return storageErr(fmt.Sprintf("deactivate product %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("product %d not found", id)
	}
	s.logger.Info("product deactivated", zap.Int("product_id", id))
	return nil
}

func (s *catalogService) AssignCategory(ctx context.Context, productID int, categoryID *int) (*Product, error) {
	var p *Product
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if categoryID != nil {
			if _, err := fetchCategory(ctx, tx, *categoryID); err != nil {
				return err
			}
		}
		var err error
		p, err = scanProduct(tx.QueryRow(ctx,
			"UPDATE products SET category_id = $1 WHERE id = $2 RETURNING "+productColumns,
			categoryID, productID,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFoundf("product %d not found", productID)
			}
			return storageErr(fmt.Sprintf("assign category to product %d", productID), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
