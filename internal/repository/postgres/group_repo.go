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

const groupColumns = "id, name, created_by, created_at, updated_at"

type groupRepo struct {
	db sqlx.ExtContext
}

// NewGroupRepo creates a new PostgreSQL-backed GroupRepository.
func NewGroupRepo(db *sqlx.DB) port.GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) FindByNames(ctx context.Context, names []string) ([]domain.ClientGroup, error) {
	if len(names) == 0 {
		return []domain.ClientGroup{}, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}

	query, args, err := sqlx.In("SELECT "+groupColumns+" FROM client_groups WHERE lower(name) IN (?)", lowered)
	if err != nil {
		return nil, fmt.Errorf("groupRepo.FindByNames: %w", err)
	}
	groups := []domain.ClientGroup{}
	if err := sqlx.SelectContext(ctx, r.db, &groups, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("groupRepo.FindByNames: %w", err)
	}
	return groups, nil
}

func (r *groupRepo) GetByName(ctx context.Context, name string) (*domain.ClientGroup, error) {
	var group domain.ClientGroup
	err := sqlx.GetContext(ctx, r.db, &group,
		"SELECT "+groupColumns+" FROM client_groups WHERE lower(name) = lower($1)", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("groupRepo.GetByName: %w", err)
	}
	return &group, nil
}

func (r *groupRepo) Create(ctx context.Context, group *domain.ClientGroup) error {
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO client_groups (name, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		group.Name, group.CreatedBy, group.CreatedAt, group.UpdatedAt).Scan(&group.ID)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return domain.ErrDuplicateGroup
		}
		return fmt.Errorf("groupRepo.Create: %w", err)
	}
	return nil
}
