package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type vendorService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewVendorService constructs a VendorService backed by PostgreSQL.
func NewVendorService(pool *pgxpool.Pool, logger *zap.Logger) VendorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &vendorService{pool: pool, logger: logger}
}

const vendorLinkSelect = `
	SELECT pv.id, pv.product_id, pv.vendor_id, a.name, pv.vendor_sku, pv.lead_time_days,
	       pv.last_price, pv.updated_at
	FROM product_vendors pv
	JOIN accounts a ON a.id = pv.vendor_id`

func (s *vendorService) LinkVendor(ctx context.Context, in VendorLinkInput) (*VendorLink, error) {
	if err := validateLinkTerms(in.LeadTimeDays, in.LastPrice); err != nil {
		return nil, err
	}

	var link *VendorLink
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := requireProduct(ctx, tx, in.ProductID); err != nil {
			return err
		}
		if _, err := requireVendor(ctx, tx, in.VendorID); err != nil {
			return err
		}

		var id int
		if err := tx.QueryRow(ctx, `
			INSERT INTO product_vendors (product_id, vendor_id, vendor_sku, lead_time_days, last_price)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (product_id, vendor_id) DO UPDATE
			SET vendor_sku     = EXCLUDED.vendor_sku,
			    lead_time_days = EXCLUDED.lead_time_days,
			    last_price     = EXCLUDED.last_price,
			    updated_at     = NOW()
			RETURNING id`,
			in.ProductID, in.VendorID, in.sku(), in.LeadTimeDays, in.LastPrice,
		).Scan(&id); err != nil {
			return storageErr(fmt.Sprintf("link vendor %d to product %d", in.VendorID, in.ProductID), err)
		}

		var err error
		link, err = fetchVendorLink(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vendor linked",
		zap.Int("link_id", link.ID),
		zap.Int("product_id", link.ProductID),
		zap.Int("vendor_id", link.VendorID),
	)
	return link, nil
}

func (s *vendorService) UpdateLink(ctx context.Context, linkID int, upd VendorLinkUpdate) (*VendorLink, error) {
	if err := validateLinkTerms(upd.LeadTimeDays, upd.LastPrice); err != nil {
		return nil, err
	}

	var link *VendorLink
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := fetchVendorLink(ctx, tx, linkID, true)
		if err != nil {
			return err
		}
		sku := current.VendorSKU
		if upd.VendorSKU != nil {
			sku = nullableText(*upd.VendorSKU)
		}
		leadTime := current.LeadTimeDays
		if upd.LeadTimeDays != nil {
			leadTime = upd.LeadTimeDays
		}
		price := current.LastPrice
		if upd.LastPrice != nil {
			price = upd.LastPrice
		}

		if _, err := tx.Exec(ctx, `
			UPDATE product_vendors
			SET vendor_sku = $1, lead_time_days = $2, last_price = $3, updated_at = NOW()
			WHERE id = $4`,
			sku, leadTime, price, linkID,
		); err != nil {
			return storageErr(fmt.Sprintf("update vendor link %d", linkID), err)
		}
		link, err = fetchVendorLink(ctx, tx, linkID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *vendorService) RemoveLink(ctx context.Context, linkID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM product_vendors WHERE id = $1", linkID)
	if err != nil {
		return storageErr(fmt.Sprintf("remove vendor link %d", linkID), err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("vendor link %d not found", linkID)
	}
	s.logger.Info("vendor link removed", zap.Int("link_id", linkID))
	return nil
}

func (s *vendorService) ListForProduct(ctx context.Context, productID int) ([]VendorLink, error) {
	if _, err := requireProduct(ctx, s.pool, productID); err != nil {
		return nil, err
	}
	links, err := queryVendorLinks(ctx, s.pool, vendorLinkSelect+" WHERE pv.product_id = $1", productID)
	if err != nil {
		return nil, err
	}
	sortVendorLinks(links)
	return links, nil
}

func (s *vendorService) ListForVendor(ctx context.Context, vendorID int) ([]VendorLink, error) {
	if _, err := fetchAccount(ctx, s.pool, vendorID); err != nil {
		return nil, err
	}
	return queryVendorLinks(ctx, s.pool, vendorLinkSelect+" WHERE pv.vendor_id = $1 ORDER BY pv.product_id, pv.id", vendorID)
}

func (s *vendorService) PreferredVendor(ctx context.Context, productID int) (*VendorLink, error) {
	links, err := s.ListForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	return &links[0], nil
}

func fetchVendorLink(ctx context.Context, q querier, id int, forUpdate bool) (*VendorLink, error) {
	sql := vendorLinkSelect + " WHERE pv.id = $1"
	if forUpdate {
		sql += " FOR UPDATE OF pv"
	}
	link, err := scanVendorLink(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("vendor link %d not found", id)
		}
		return nil, storageErr(fmt.Sprintf("fetch vendor link %d", id), err)
	}
	return link, nil
}

func queryVendorLinks(ctx context.Context, q querier, sql string, args ...any) ([]VendorLink, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr("query vendor links", err)
	}
	defer rows.Close()

	var links []VendorLink
	for rows.Next() {
		l, err := scanVendorLink(rows)
		if err != nil {
			return nil, storageErr("scan vendor link", err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate vendor links", err)
	}
	return links, nil
}

func scanVendorLink(row pgx.Row) (*VendorLink, error) {
	var l VendorLink
	if err := row.Scan(&l.ID, &l.ProductID, &l.VendorID, &l.VendorName, &l.VendorSKU,
		&l.LeadTimeDays, &l.LastPrice, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
