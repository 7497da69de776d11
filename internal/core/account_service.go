package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AccountInput holds the fields required to create an account.
type AccountInput struct {
	Name  string
	Type  AccountType
	Email string
}

// AccountService is the account directory: it creates accounts and resolves
// ids to their type for vendor checks.
type AccountService interface {
	CreateAccount(ctx context.Context, in AccountInput) (*Account, error)
	GetAccount(ctx context.Context, id int) (*Account, error)
	// ListAccounts filters by type when typ is non-nil.
	ListAccounts(ctx context.Context, typ *AccountType, visibility Visibility) ([]Account, error)
	// RequireVendor returns the account when it is an active VENDOR.
	RequireVendor(ctx context.Context, id int) (*Account, error)
}

type accountService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountService(pool *pgxpool.Pool, logger *zap.Logger) AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &accountService{pool: pool, logger: logger}
}

func (s *accountService) CreateAccount(ctx context.Context, in AccountInput) (*Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("account name is required")
	}
	typ, err := ParseAccountType(string(in.Type))
	if err != nil {
		return nil, err
	}

	var id int
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, account_type, email)
		VALUES ($1, $2, $3)
		RETURNING id`,
		name, string(typ), nullableText(in.Email),
	).Scan(&id); err != nil {
		return nil, storageErr(fmt.Sprintf("insert account %q", name), err)
	}

	s.logger.Info("account created", zap.Int("account_id", id), zap.String("type", string(typ)))
	return fetchAccount(ctx, s.pool, id)
}

func (s *accountService) GetAccount(ctx context.Context, id int) (*Account, error) {
	return fetchAccount(ctx, s.pool, id)
}

func (s *accountService) ListAccounts(ctx context.Context, typ *AccountType, visibility Visibility) ([]Account, error) {
	var typArg *string
	if typ != nil {
		t, err := ParseAccountType(string(*typ))
		if err != nil {
			return nil, err
		}
		v := string(t)
		typArg = &v
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, account_type, email, is_active, created_at
		FROM accounts
		WHERE ($1::text IS NULL OR account_type = $1)
		  AND ($2::boolean IS NULL OR is_active = $2)
		ORDER BY name, id`,
		typArg, visibility.activeArg(),
	)
	if err != nil {
		return nil, storageErr("query accounts", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var t string
		var active bool
		if err := rows.Scan(&a.ID, &a.Name, &t, &a.Email, &active, &a.CreatedAt); err != nil {
			return nil, storageErr("scan account", err)
		}
		if a.Type, err = ParseAccountType(t); err != nil {
			return nil, storageErr(fmt.Sprintf("account %d", a.ID), err)
		}
		a.State = recordState(active)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate accounts", err)
	}
	return accounts, nil
}

func (s *accountService) RequireVendor(ctx context.Context, id int) (*Account, error) {
	return requireVendor(ctx, s.pool, id)
}
