package port

import (
	"context"

	"lawdesk/internal/domain"
)

// GroupRepository defines the contract for client group persistence.
// Name lookups are case-insensitive.
type GroupRepository interface {
	FindByNames(ctx context.Context, names []string) ([]domain.ClientGroup, error)
	GetByName(ctx context.Context, name string) (*domain.ClientGroup, error)
	Create(ctx context.Context, group *domain.ClientGroup) error
}

// ClientRepository defines the contract for client persistence.
type ClientRepository interface {
	// FindByNames returns every client whose name matches one of names, in any group.
	FindByNames(ctx context.Context, names []string) ([]domain.Client, error)
	// FindByCodes and GetByCode compare codes case-insensitively.
	FindByCodes(ctx context.Context, codes []string) ([]domain.Client, error)
	GetByGroupAndName(ctx context.Context, groupID int64, name string) (*domain.Client, error)
	GetByCode(ctx context.Context, code string) (*domain.Client, error)
	Create(ctx context.Context, client *domain.Client) error
}

// ContactRepository defines the contract for contact persistence.
type ContactRepository interface {
	ListEmailsByClientIDs(ctx context.Context, clientIDs []int64) ([]domain.ContactEmail, error)
	ExistsByEmail(ctx context.Context, clientID int64, email string) (bool, error)
	HasPrimary(ctx context.Context, clientID int64) (bool, error)
	Create(ctx context.Context, contact *domain.Contact) error
}

// UserRepository defines the contract for the user lookups the import needs.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// FindExistingIDs returns the subset of ids that belong to a stored user.
	FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}
