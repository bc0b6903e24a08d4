package bulkimport

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

// memStore is an in-memory implementation of the import repositories with
// snapshot-based transactions and the same uniqueness rules as the schema.
type memStore struct {
	nextID   int64
	users    map[int64]bool
	groups   []domain.ClientGroup
	clients  []domain.Client
	contacts []domain.Contact

	// failContact makes Create fail for contacts with this name.
	failContact string
	txCount     int
	lookups     map[string]int
}

func newMemStore(userIDs ...int64) *memStore {
	m := &memStore{nextID: 1000, users: make(map[int64]bool), lookups: make(map[string]int)}
	for _, id := range userIDs {
		m.users[id] = true
	}
	return m
}

type memSnapshot struct {
	nextID   int64
	groups   []domain.ClientGroup
	clients  []domain.Client
	contacts []domain.Contact
}

func (m *memStore) WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, s port.TxStores) error) error {
	m.txCount++
	snap := memSnapshot{
		nextID:   m.nextID,
		groups:   append([]domain.ClientGroup(nil), m.groups...),
		clients:  append([]domain.Client(nil), m.clients...),
		contacts: append([]domain.Contact(nil), m.contacts...),
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := fn(ctx, m.stores()); err != nil {
		m.nextID, m.groups, m.clients, m.contacts = snap.nextID, snap.groups, snap.clients, snap.contacts
		return err
	}
	return nil
}

func (m *memStore) stores() port.TxStores {
	return port.TxStores{Groups: memGroups{m}, Clients: memClients{m}, Contacts: memContacts{m}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) builder() *PreviewBuilder {
	return NewPreviewBuilder(memGroups{m}, memClients{m}, memContacts{m}, memUsers{m}, discardLog())
}

func (m *memStore) committer(batchSize int) *Committer {
	return NewCommitter(m, CommitterConfig{BatchSize: batchSize, BatchTimeout: time.Second}, discardLog())
}

func (m *memStore) contactsOf(clientName string) []domain.Contact {
	var out []domain.Contact
	for _, cl := range m.clients {
		if !strings.EqualFold(cl.Name, clientName) {
			continue
		}
		for _, ct := range m.contacts {
			if ct.ClientID == cl.ID {
				out = append(out, ct)
			}
		}
	}
	return out
}

func discardLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type memGroups struct{ m *memStore }

func (r memGroups) FindByNames(_ context.Context, names []string) ([]domain.ClientGroup, error) {
	r.m.lookups["groups"]++
	var out []domain.ClientGroup
	for _, g := range r.m.groups {
		for _, n := range names {
			if strings.EqualFold(g.Name, n) {
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}

func (r memGroups) GetByName(_ context.Context, name string) (*domain.ClientGroup, error) {
	for _, g := range r.m.groups {
		if strings.EqualFold(g.Name, name) {
			g := g
			return &g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memGroups) Create(_ context.Context, group *domain.ClientGroup) error {
	if _, err := r.GetByName(context.Background(), group.Name); err == nil {
		return domain.ErrDuplicateGroup
	}
	group.ID = r.m.id()
	r.m.groups = append(r.m.groups, *group)
	return nil
}

type memClients struct{ m *memStore }

func (r memClients) FindByNames(_ context.Context, names []string) ([]domain.Client, error) {
	r.m.lookups["clients"]++
	var out []domain.Client
	for _, c := range r.m.clients {
		for _, n := range names {
			if strings.EqualFold(c.Name, n) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (r memClients) FindByCodes(_ context.Context, codes []string) ([]domain.Client, error) {
	r.m.lookups["codes"]++
	var out []domain.Client
	for _, c := range r.m.clients {
		if c.Code == nil {
			continue
		}
		for _, code := range codes {
			if strings.EqualFold(*c.Code, code) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (r memClients) GetByGroupAndName(_ context.Context, groupID int64, name string) (*domain.Client, error) {
	for _, c := range r.m.clients {
		if c.GroupID == groupID && strings.EqualFold(c.Name, name) {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memClients) GetByCode(_ context.Context, code string) (*domain.Client, error) {
	for _, c := range r.m.clients {
		if c.Code != nil && strings.EqualFold(*c.Code, code) {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memClients) Create(ctx context.Context, client *domain.Client) error {
	if _, err := r.GetByGroupAndName(ctx, client.GroupID, client.Name); err == nil {
		return domain.ErrDuplicateClient
	}
	if client.Code != nil {
		if _, err := r.GetByCode(ctx, *client.Code); err == nil {
			return domain.ErrDuplicateClientCode
		}
	}
	if client.ReferredByID != nil && !r.m.users[*client.ReferredByID] {
		return fmt.Errorf("foreign key violation: user %d", *client.ReferredByID)
	}
	client.ID = r.m.id()
	r.m.clients = append(r.m.clients, *client)
	return nil
}

type memContacts struct{ m *memStore }

func (r memContacts) ListEmailsByClientIDs(_ context.Context, clientIDs []int64) ([]domain.ContactEmail, error) {
	r.m.lookups["emails"]++
	var out []domain.ContactEmail
	for _, c := range r.m.contacts {
		for _, id := range clientIDs {
			if c.ClientID == id && c.Email != "" {
				out = append(out, domain.ContactEmail{ClientID: c.ClientID, Email: c.Email})
				break
			}
		}
	}
	return out, nil
}

func (r memContacts) ExistsByEmail(_ context.Context, clientID int64, email string) (bool, error) {
	for _, c := range r.m.contacts {
		if c.ClientID == clientID && strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r memContacts) HasPrimary(_ context.Context, clientID int64) (bool, error) {
	for _, c := range r.m.contacts {
		if c.ClientID == clientID && c.IsPrimary {
			return true, nil
		}
	}
	return false, nil
}

func (r memContacts) Create(ctx context.Context, contact *domain.Contact) error {
	if r.m.failContact != "" && contact.Name == r.m.failContact {
		return fmt.Errorf("insert contact: connection reset")
	}
	if contact.Email != "" {
		if ok, _ := r.ExistsByEmail(ctx, contact.ClientID, contact.Email); ok {
			return domain.ErrDuplicateContact
		}
	}
	if contact.IsPrimary {
		if ok, _ := r.HasPrimary(ctx, contact.ClientID); ok {
			return domain.ErrPrimaryExists
		}
	}
	contact.ID = r.m.id()
	r.m.contacts = append(r.m.contacts, *contact)
	return nil
}

type memUsers struct{ m *memStore }

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if !r.m.users[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.User{ID: id, IsActive: true}, nil
}

func (r memUsers) FindExistingIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.m.lookups["users"]++
	var out []int64
	for _, id := range ids {
		if r.m.users[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
