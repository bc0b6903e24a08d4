package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

const clientColumns = `id, group_id, name, industry, website, address, code, notes,
	referred_by_id, created_by, created_at, updated_at`

type clientRepo struct {
	db sqlx.ExtContext
}

// NewClientRepo creates a new PostgreSQL-backed ClientRepository.
func NewClientRepo(db *sqlx.DB) port.ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) FindByNames(ctx context.Context, names []string) ([]domain.Client, error) {
	if len(names) == 0 {
		return []domain.Client{}, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	return r.selectIn(ctx, "clientRepo.FindByNames",
		"SELECT "+clientColumns+" FROM clients WHERE lower(name) IN (?) ORDER BY id", lowered)
}

func (r *clientRepo) FindByCodes(ctx context.Context, codes []string) ([]domain.Client, error) {
	if len(codes) == 0 {
		return []domain.Client{}, nil
	}
	lowered := make([]string, len(codes))
	for i, c := range codes {
		lowered[i] = strings.ToLower(c)
	}
	return r.selectIn(ctx, "clientRepo.FindByCodes",
		"SELECT "+clientColumns+" FROM clients WHERE lower(code) IN (?) ORDER BY id", lowered)
}

func (r *clientRepo) selectIn(ctx context.Context, op, query string, values []string) ([]domain.Client, error) {
	q, args, err := sqlx.In(query, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	clients := []domain.Client{}
	if err := sqlx.SelectContext(ctx, r.db, &clients, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clients, nil
}

func (r *clientRepo) GetByGroupAndName(ctx context.Context, groupID int64, name string) (*domain.Client, error) {
	return r.getOne(ctx, "clientRepo.GetByGroupAndName",
		"SELECT "+clientColumns+" FROM clients WHERE group_id = $1 AND lower(name) = lower($2)", groupID, name)
}

func (r *clientRepo) GetByCode(ctx context.Context, code string) (*domain.Client, error) {
	return r.getOne(ctx, "clientRepo.GetByCode",
		"SELECT "+clientColumns+" FROM clients WHERE lower(code) = lower($1)", code)
}

func (r *clientRepo) getOne(ctx context.Context, op, query string, args ...interface{}) (*domain.Client, error) {
	var client domain.Client
	if err := sqlx.GetContext(ctx, r.db, &client, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &client, nil
}

func (r *clientRepo) Create(ctx context.Context, client *domain.Client) error {
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO clients (group_id, name, industry, website, address, code, notes,
			referred_by_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		client.GroupID, client.Name, client.Industry, client.Website, client.Address,
		client.Code, client.Notes, client.ReferredByID, client.CreatedBy,
		client.CreatedAt, client.UpdatedAt).Scan(&client.ID)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == "uq_clients_code" {
				return domain.ErrDuplicateClientCode
			}
			return domain.ErrDuplicateClient
		}
		return fmt.Errorf("clientRepo.Create: %w", err)
	}
	return nil
}
