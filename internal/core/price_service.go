package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PriceRecord is a time-bounded price for (product, price type, currency).
// ValidTo nil means open-ended.
type PriceRecord struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product_id"`
	PriceType PriceType       `json:"price_type"`
	Currency  string          `json:"currency"`
	Value     decimal.Decimal `json:"value"`
	ValidFrom time.Time       `json:"valid_from"`
	ValidTo   *time.Time      `json:"valid_to,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// covers reports whether the record is in force on day at.
func (p PriceRecord) covers(at time.Time) bool {
	at = dateOnly(at)
	if dateOnly(p.ValidFrom).After(at) {
		return false
	}
	return p.ValidTo == nil || !dateOnly(*p.ValidTo).Before(at)
}

type PriceInput struct {
	ProductID int
	PriceType PriceType
	Currency  string
	Value     decimal.Decimal
	ValidFrom time.Time
	ValidTo   *time.Time
}

func (in *PriceInput) normalize() error {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(in.Currency) != 3 {
		return validationf("currency must be a 3-letter code, got %q", in.Currency)
	}
	if _, err := ParsePriceType(string(in.PriceType)); err != nil {
		return err
	}
	if in.Value.IsNegative() {
		return validationf("price cannot be negative, got %s", in.Value.String())
	}
	if in.ValidFrom.IsZero() {
		return validationf("valid_from is required")
	}
	in.ValidFrom = dateOnly(in.ValidFrom)
	if in.ValidTo != nil {
		to := dateOnly(*in.ValidTo)
		if to.Before(in.ValidFrom) {
			return validationf("valid_to %s is before valid_from %s", to.Format(dateLayout), in.ValidFrom.Format(dateLayout))
		}
		in.ValidTo = &to
	}
	return nil
}

// PriceFilter narrows ListPrices. Zero values match everything.
type PriceFilter struct {
	PriceType *PriceType
	Currency  string
}

type PriceService interface {
	// UpsertPrice inserts a price or overwrites the one with the same
	// (product, price type, currency, valid_from) key.
	UpsertPrice(ctx context.Context, in PriceInput) (*PriceRecord, error)
	// EffectivePrice returns the price in force on date at, or nil when none applies.
	EffectivePrice(ctx context.Context, productID int, at time.Time, currency string, priceType PriceType) (*PriceRecord, error)
	ListPrices(ctx context.Context, productID int, filter PriceFilter) ([]PriceRecord, error)
	DeletePrice(ctx context.Context, priceID int) error
}

type priceService struct {
	pool *pgxpool.Pool
}

func NewPriceService(pool *pgxpool.Pool) PriceService {
	return &priceService{pool: pool}
}

func (s *priceService) UpsertPrice(ctx context.Context, in PriceInput) (*PriceRecord, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if _, err := requireProduct(ctx, s.pool, in.ProductID); err != nil {
		return nil, err
	}

	rec, err := scanPriceRecord(s.pool.QueryRow(ctx, `
		INSERT INTO product_prices (product_id, price_type, currency, value, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, price_type, currency, valid_from)
		DO UPDATE SET value = EXCLUDED.value, valid_to = EXCLUDED.valid_to
		RETURNING id, product_id, price_type, currency, value, valid_from, valid_to, created_at
	`, in.ProductID, string(in.PriceType), in.Currency, in.Value, in.ValidFrom, in.ValidTo))
	if err != nil {
		return nil, storageErr(fmt.Sprintf("upsert %s %s price for product %d", in.PriceType, in.Currency, in.ProductID), err)
	}
	return rec, nil
}

func (s *priceService) EffectivePrice(ctx context.Context, productID int, at time.Time, currency string, priceType PriceType) (*PriceRecord, error) {
	pt, err := ParsePriceType(string(priceType))
	if err != nil {
		return nil, err
	}
	if _, err := requireProduct(ctx, s.pool, productID); err != nil {
		return nil, err
	}
	day := dateOnly(at)

	candidates, err := s.queryPrices(ctx, `
		SELECT id, product_id, price_type, currency, value, valid_from, valid_to, created_at
		FROM product_prices
		WHERE product_id = $1 AND price_type = $2 AND currency = $3
		  AND valid_from <= $4
		  AND (valid_to IS NULL OR valid_to >= $4)
	`, productID, string(pt), strings.ToUpper(strings.TrimSpace(currency)), day)
	if err != nil {
		return nil, err
	}
	return selectEffectivePrice(candidates, day), nil
}

func (s *priceService) ListPrices(ctx context.Context, productID int, filter PriceFilter) ([]PriceRecord, error) {
	if _, err := requireProduct(ctx, s.pool, productID); err != nil {
		return nil, err
	}
	var pt *string
	if filter.PriceType != nil {
		t, err := ParsePriceType(string(*filter.PriceType))
		if err != nil {
			return nil, err
		}
		v := string(t)
		pt = &v
	}
	return s.queryPrices(ctx, `
		SELECT id, product_id, price_type, currency, value, valid_from, valid_to, created_at
		FROM product_prices
		WHERE product_id = $1
		  AND ($2::text IS NULL OR price_type = $2)
		  AND ($3 = '' OR currency = $3)
		ORDER BY price_type, currency, valid_from DESC, id DESC
	`, productID, pt, strings.ToUpper(strings.TrimSpace(filter.Currency)))
}

func (s *priceService) DeletePrice(ctx context.Context, priceID int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM product_prices WHERE id = $1", priceID)
	if err != nil {
		return storageErr(fmt.Sprintf("delete price %d", priceID), err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundf("price %d not found", priceID)
	}
	return nil
}

func (s *priceService) queryPrices(ctx context.Context, sql string, args ...any) ([]PriceRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageErr("query prices", err)
	}
	defer rows.Close()

	var out []PriceRecord
	for rows.Next() {
		rec, err := scanPriceRecord(rows)
		if err != nil {
			return nil, storageErr("scan price", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate prices", err)
	}
	return out, nil
}

func scanPriceRecord(row pgx.Row) (*PriceRecord, error) {
	var p PriceRecord
	var pt string
	if err := row.Scan(&p.ID, &p.ProductID, &pt, &p.Currency, &p.Value, &p.ValidFrom, &p.ValidTo, &p.CreatedAt); err != nil {
		return nil, err
	}
	t, err := ParsePriceType(pt)
	if err != nil {
		return nil, err
	}
	p.PriceType = t
	return &p, nil
}

// selectEffectivePrice picks the record in force on day at: latest valid_from,
// then open-ended over closed, then latest valid_to, then highest id.
// It returns nil when no record covers at.
func selectEffectivePrice(records []PriceRecord, at time.Time) *PriceRecord {
	var best *PriceRecord
	for i := range records {
		r := &records[i]
		if !r.covers(at) {
			continue
		}
		if best == nil || preferPrice(r, best) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// preferPrice reports whether a ranks ahead of b.
func preferPrice(a, b *PriceRecord) bool {
	af, bf := dateOnly(a.ValidFrom), dateOnly(b.ValidFrom)
	if !af.Equal(bf) {
		return af.After(bf)
	}
	switch {
	case a.ValidTo == nil && b.ValidTo != nil:
		return true
	case a.ValidTo != nil && b.ValidTo == nil:
		return false
	case a.ValidTo != nil && b.ValidTo != nil:
		at, bt := dateOnly(*a.ValidTo), dateOnly(*b.ValidTo)
		if !at.Equal(bt) {
			return at.After(bt)
		}
	}
	return a.ID > b.ID
}

const dateLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, validationf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
