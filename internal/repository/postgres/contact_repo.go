package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

type contactRepo struct {
	db sqlx.ExtContext
}

// NewContactRepo creates a new PostgreSQL-backed ContactRepository.
func NewContactRepo(db *sqlx.DB) port.ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) ListEmailsByClientIDs(ctx context.Context, clientIDs []int64) ([]domain.ContactEmail, error) {
	if len(clientIDs) == 0 {
		return []domain.ContactEmail{}, nil
	}
	query, args, err := sqlx.In("SELECT client_id, email FROM contacts WHERE client_id IN (?) AND email <> ''", clientIDs)
	if err != nil {
		return nil, fmt.Errorf("contactRepo.ListEmailsByClientIDs: %w", err)
	}
	emails := []domain.ContactEmail{}
	if err := sqlx.SelectContext(ctx, r.db, &emails, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("contactRepo.ListEmailsByClientIDs: %w", err)
	}
	return emails, nil
}

func (r *contactRepo) ExistsByEmail(ctx context.Context, clientID int64, email string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists,
		"SELECT EXISTS (SELECT 1 FROM contacts WHERE client_id = $1 AND lower(email) = lower($2))", clientID, email)
	if err != nil {
		return false, fmt.Errorf("contactRepo.ExistsByEmail: %w", err)
	}
	return exists, nil
}

func (r *contactRepo) HasPrimary(ctx context.Context, clientID int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists,
		"SELECT EXISTS (SELECT 1 FROM contacts WHERE client_id = $1 AND is_primary)", clientID)
	if err != nil {
		return false, fmt.Errorf("contactRepo.HasPrimary: %w", err)
	}
	return exists, nil
}

func (r *contactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO contacts (client_id, name, email, phone, designation, is_primary, notes,
			linkedin, twitter, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		contact.ClientID, contact.Name, contact.Email, contact.Phone, contact.Designation,
		contact.IsPrimary, contact.Notes, contact.LinkedIn, contact.Twitter, contact.CreatedBy,
		contact.CreatedAt, contact.UpdatedAt).Scan(&contact.ID)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == "uq_contacts_primary" {
				return domain.ErrPrimaryExists
			}
			return domain.ErrDuplicateContact
		}
		return fmt.Errorf("contactRepo.Create: %w", err)
	}
	return nil
}
