package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so read helpers can run
// standalone or inside a caller's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Advisory lock keys for operations that must serialise across the whole table.
const (
	documentNumberLockKey = 7462840
	categoryTreeLockKey   = 7462841
)

// runInTx begins a transaction, runs fn and commits. Any error from fn rolls
// the whole unit back.
func runInTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

func advisoryXactLock(ctx context.Context, tx pgx.Tx, key int64) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return storageErr("acquire advisory lock", err)
	}
	return nil
}

func requireProduct(ctx context.Context, q querier, productID int) (*Product, error) {
	p, err := scanProduct(q.QueryRow(ctx, `
		SELECT id, sku, name, description, category_id, unit_of_measure, is_active, created_at
		FROM products WHERE id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("product %d not found", productID)
		}
		return nil, storageErr(fmt.Sprintf("fetch product %d", productID), err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var active bool
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.UnitOfMeasure, &active, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.State = recordState(active)
	return &p, nil
}

// requireVendor resolves accountID and checks it is an active VENDOR account.
func requireVendor(ctx context.Context, q querier, accountID int) (*Account, error) {
	a, err := fetchAccount(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if a.Type != AccountTypeVendor {
		return nil, validationf("account %d is %s, not a VENDOR", accountID, a.Type)
	}
	if a.State != StateActive {
		return nil, validationf("vendor account %d is inactive", accountID)
	}
	return a, nil
}

func fetchAccount(ctx context.Context, q querier, accountID int) (*Account, error) {
	var a Account
	var typ string
	var active bool
	err := q.QueryRow(ctx, `
		SELECT id, name, account_type, email, is_active, created_at
		FROM accounts WHERE id = $1`, accountID,
	).Scan(&a.ID, &a.Name, &typ, &a.Email, &active, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("account %d not found", accountID)
		}
		return nil, storageErr(fmt.Sprintf("fetch account %d", accountID), err)
	}
	if a.Type, err = ParseAccountType(typ); err != nil {
		return nil, storageErr(fmt.Sprintf("account %d", accountID), err)
	}
	a.State = recordState(active)
	return &a, nil
}
