package bulkimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

// Default batch settings, overridable through import configuration.
const (
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 30 * time.Second
)

// CommitterConfig bounds the transactions a commit opens.
type CommitterConfig struct {
	BatchSize    int
	BatchTimeout time.Duration
}

// Committer persists an approved preview: groups, then clients, then
// contacts, each phase in fixed-size batches with one transaction per batch.
// A failed batch is rolled back and reported; later batches still run.
type Committer struct {
	tx  port.Transactor
	cfg CommitterConfig
	log *logrus.Entry
}

// NewCommitter creates a Committer.
func NewCommitter(tx port.Transactor, cfg CommitterConfig, log *logrus.Entry) *Committer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	return &Committer{tx: tx, cfg: cfg, log: log}
}

// commitRun holds the state of one Commit call.
type commitRun struct {
	ctx       context.Context
	actor     domain.Actor
	result    *domain.UploadResult
	groupIDs  map[string]int64
	clientIDs map[string]int64
	// existingClients are clients reused rather than created by this commit.
	existingClients map[string]bool
	log             *logrus.Entry
}

func (r *commitRun) fail(row int, field, format string, args ...interface{}) {
	r.result.Errors = append(r.result.Errors, domain.ValidationError{Row: row, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *commitRun) warn(row int, format string, args ...interface{}) {
	r.result.Warnings = append(r.result.Warnings, domain.Warning{Row: row, Message: fmt.Sprintf(format, args...)})
}

// Commit persists preview on behalf of actor. It returns an error only when
// the preview cannot be processed at all; per-entity failures are reported
// in the result.
func (c *Committer) Commit(ctx context.Context, preview *domain.PreviewData, actor domain.Actor) (*domain.UploadResult, error) {
	if preview == nil {
		return nil, fmt.Errorf("bulkimport.Commit: %w: nil preview", domain.ErrInvalidPreview)
	}

	importID := uuid.New().String()
	run := &commitRun{
		ctx:   ctx,
		actor: actor,
		result: &domain.UploadResult{
			ImportID:        importID,
			CreatedGroups:   []domain.CreatedGroup{},
			CreatedClients:  []domain.CreatedClient{},
			CreatedContacts: []domain.CreatedContact{},
			Errors:          []domain.ValidationError{},
			Warnings:        []domain.Warning{},
		},
		groupIDs:        make(map[string]int64),
		clientIDs:       make(map[string]int64),
		existingClients: make(map[string]bool),
		log:             c.log.WithFields(logrus.Fields{"import_id": importID, "user_id": actor.UserID}),
	}

	start := time.Now()
	c.commitGroups(run, preview.Groups)
	c.commitClients(run, preview.Clients)
	c.commitContacts(run, preview.Contacts)

	res := run.result
	run.log.WithFields(logrus.Fields{
		"groups_created":   res.GroupsCreated,
		"groups_existing":  res.GroupsExisting,
		"clients_created":  res.ClientsCreated,
		"clients_existing": res.ClientsExisting,
		"contacts_created": res.ContactsCreated,
		"contacts_skipped": res.ContactsSkipped,
		"errors":           len(res.Errors),
		"duration_ms":      time.Since(start).Milliseconds(),
	}).Info("bulkimport.Commit: finished")
	return res, nil
}

func (c *Committer) batchLog(run *commitRun, phase string, batch, size int) *logrus.Entry {
	return run.log.WithFields(logrus.Fields{"phase": phase, "batch": batch, "size": size})
}

func (c *Committer) commitGroups(run *commitRun, groups []domain.CandidateGroup) {
	var pending []domain.CandidateGroup
	for _, g := range groups {
		if g.Exists && g.ExistingID != nil {
			run.groupIDs[groupKey(g.Name)] = *g.ExistingID
			run.result.GroupsExisting++
			continue
		}
		pending = append(pending, g)
	}

	for n, batch := range chunk(pending, c.cfg.BatchSize) {
		var (
			created []domain.CreatedGroup
			reused  []domain.CreatedGroup
		)
		err := c.tx.WithinTx(run.ctx, c.cfg.BatchTimeout, func(ctx context.Context, s port.TxStores) error {
			created, reused = nil, nil
			for _, g := range batch {
				found, err := s.Groups.GetByName(ctx, g.Name)
				if err == nil {
					reused = append(reused, domain.CreatedGroup{ID: found.ID, Name: found.Name})
					continue
				}
				if !errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("group %q: %w", g.Name, err)
				}
				group := &domain.ClientGroup{Name: g.Name, CreatedBy: run.actor.UserID}
				if err := s.Groups.Create(ctx, group); err != nil {
					return fmt.Errorf("group %q: %w", g.Name, err)
				}
				created = append(created, domain.CreatedGroup{ID: group.ID, Name: group.Name})
			}
			return nil
		})
		log := c.batchLog(run, "groups", n+1, len(batch))
		if err != nil {
			log.WithError(err).Error("bulkimport.Commit: batch rolled back")
			for _, g := range batch {
				run.fail(g.Row, "group_name", "group %q was not created: %v", g.Name, err)
			}
			continue
		}
		for _, g := range reused {
			run.groupIDs[groupKey(g.Name)] = g.ID
			run.result.GroupsExisting++
		}
		for _, g := range created {
			run.groupIDs[groupKey(g.Name)] = g.ID
			run.result.GroupsCreated++
			run.result.CreatedGroups = append(run.result.CreatedGroups, g)
		}
		log.WithField("created", len(created)).Debug("bulkimport.Commit: batch committed")
	}
}

type pendingClient struct {
	candidate domain.CandidateClient
	groupID   int64
}

func (c *Committer) commitClients(run *commitRun, clients []domain.CandidateClient) {
	var pending []pendingClient
	for _, cl := range clients {
		key := clientKey(cl.GroupName, cl.Name)
		switch {
		case cl.Blocked:
			run.warn(cl.Row, "client %q was skipped because the preview reported errors for it", cl.Name)
		case cl.Exists && cl.ExistingID != nil:
			run.clientIDs[key] = *cl.ExistingID
			run.existingClients[key] = true
			run.result.ClientsExisting++
		default:
			gid, ok := run.groupIDs[groupKey(cl.GroupName)]
			if !ok {
				run.fail(cl.Row, "group_name", "client %q was not created: group %q is unavailable", cl.Name, cl.GroupName)
				continue
			}
			pending = append(pending, pendingClient{candidate: cl, groupID: gid})
		}
	}

	type stagedClient struct {
		key      string
		id       int64
		existing bool
		entry    domain.CreatedClient
	}

	for n, batch := range chunk(pending, c.cfg.BatchSize) {
		var (
			staged []stagedClient
			errs   []domain.ValidationError
		)
		err := c.tx.WithinTx(run.ctx, c.cfg.BatchTimeout, func(ctx context.Context, s port.TxStores) error {
			staged, errs = nil, nil
			for _, pc := range batch {
				cl := pc.candidate
				key := clientKey(cl.GroupName, cl.Name)

				found, err := s.Clients.GetByGroupAndName(ctx, pc.groupID, cl.Name)
				if err == nil {
					staged = append(staged, stagedClient{key: key, id: found.ID, existing: true})
					continue
				}
				if !errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("client %q: %w", cl.Name, err)
				}

				var code *string
				if cl.Code != "" {
					holder, err := s.Clients.GetByCode(ctx, cl.Code)
					if err == nil {
						errs = append(errs, domain.ValidationError{
							Row:     cl.Row,
							Field:   "client_code",
							Message: fmt.Sprintf("client %q was not created: client code %q is already used by client %q", cl.Name, cl.Code, holder.Name),
						})
						continue
					}
					if !errors.Is(err, domain.ErrNotFound) {
						return fmt.Errorf("client %q: %w", cl.Name, err)
					}
					v := cl.Code
					code = &v
				}

				var referredBy *int64
				if len(cl.ReferenceUserIDs) > 0 {
					v := cl.ReferenceUserIDs[0]
					referredBy = &v
				}

				client := &domain.Client{
					GroupID:      pc.groupID,
					Name:         cl.Name,
					Industry:     cl.Industry,
					Website:      cl.Website,
					Address:      cl.Address,
					Code:         code,
					Notes:        cl.Notes,
					ReferredByID: referredBy,
					CreatedBy:    run.actor.UserID,
				}
				if err := s.Clients.Create(ctx, client); err != nil {
					return fmt.Errorf("client %q: %w", cl.Name, err)
				}
				staged = append(staged, stagedClient{
					key:   key,
					id:    client.ID,
					entry: domain.CreatedClient{ID: client.ID, Name: client.Name, GroupName: cl.GroupName},
				})
			}
			return nil
		})
		log := c.batchLog(run, "clients", n+1, len(batch))
		if err != nil {
			log.WithError(err).Error("bulkimport.Commit: batch rolled back")
			for _, pc := range batch {
				run.fail(pc.candidate.Row, "client", "client %q was not created: %v", pc.candidate.Name, err)
			}
			continue
		}
		for _, sc := range staged {
			run.clientIDs[sc.key] = sc.id
			if sc.existing {
				run.existingClients[sc.key] = true
				run.result.ClientsExisting++
				continue
			}
			run.result.ClientsCreated++
			run.result.CreatedClients = append(run.result.CreatedClients, sc.entry)
		}
		run.result.Errors = append(run.result.Errors, errs...)
		log.WithField("created", len(staged)).Debug("bulkimport.Commit: batch committed")
	}
}

// clientContacts is the contact list of one committed client.
type clientContacts struct {
	key      string
	name     string
	id       int64
	existing bool
	contacts []domain.CandidateContact
}

func (c *Committer) commitContacts(run *commitRun, contacts []domain.CandidateContact) {
	var (
		order []*clientContacts
		index = make(map[string]*clientContacts)
	)
	for _, ct := range contacts {
		key := clientKey(ct.GroupName, ct.ClientName)
		id, ok := run.clientIDs[key]
		if !ok {
			run.warn(ct.SourceRow, "contact %q was skipped: client %q was not imported", ct.Name, ct.ClientName)
			run.result.ContactsSkipped++
			continue
		}
		if ct.Blocked {
			run.warn(ct.SourceRow, "contact %q was skipped because the preview reported errors for it", ct.Name)
			run.result.ContactsSkipped++
			continue
		}
		cc, ok := index[key]
		if !ok {
			cc = &clientContacts{key: key, name: ct.ClientName, id: id, existing: run.existingClients[key]}
			index[key] = cc
			order = append(order, cc)
		}
		cc.contacts = append(cc.contacts, ct)
	}

	for n, batch := range contactBatches(order, c.cfg.BatchSize) {
		var (
			created []domain.CreatedContact
			warns   []domain.Warning
			skipped int
		)
		err := c.tx.WithinTx(run.ctx, c.cfg.BatchTimeout, func(ctx context.Context, s port.TxStores) error {
			created, warns, skipped = nil, nil, 0
			for _, cc := range batch {
				out, err := commitClientContacts(ctx, s, cc, run.actor)
				if err != nil {
					return err
				}
				created = append(created, out.created...)
				warns = append(warns, out.warnings...)
				skipped += out.skipped
			}
			return nil
		})

		size := 0
		for _, cc := range batch {
			size += len(cc.contacts)
		}
		log := c.batchLog(run, "contacts", n+1, size)
		if err != nil {
			log.WithError(err).Error("bulkimport.Commit: batch rolled back")
			for _, cc := range batch {
				for _, ct := range cc.contacts {
					run.fail(ct.SourceRow, "contact", "contact %q for client %q was not created: %v", ct.Name, cc.name, err)
				}
			}
			continue
		}
		run.result.ContactsCreated += len(created)
		run.result.ContactsSkipped += skipped
		run.result.CreatedContacts = append(run.result.CreatedContacts, created...)
		run.result.Warnings = append(run.result.Warnings, warns...)
		log.WithFields(logrus.Fields{"created": len(created), "skipped": skipped}).Debug("bulkimport.Commit: batch committed")
	}
}

type contactOutcome struct {
	created  []domain.CreatedContact
	warnings []domain.Warning
	skipped  int
}

// commitClientContacts writes the contacts of one client inside an open
// transaction. Duplicates by email are dropped first so that the primary is
// chosen among contacts that will actually be created.
func commitClientContacts(ctx context.Context, s port.TxStores, cc *clientContacts, actor domain.Actor) (*contactOutcome, error) {
	out := &contactOutcome{}
	warn := func(row int, format string, args ...interface{}) {
		out.warnings = append(out.warnings, domain.Warning{Row: row, Message: fmt.Sprintf(format, args...)})
	}

	hasPrimary := false
	if cc.existing {
		var err error
		if hasPrimary, err = s.Contacts.HasPrimary(ctx, cc.id); err != nil {
			return nil, fmt.Errorf("client %q: %w", cc.name, err)
		}
	}

	survivors := make([]int, 0, len(cc.contacts))
	seen := make(map[string]bool)
	for i, ct := range cc.contacts {
		if ct.Email != "" {
			email := strings.ToLower(ct.Email)
			if seen[email] {
				warn(ct.SourceRow, "contact %q <%s> repeats an earlier contact of client %q and was skipped", ct.Name, ct.Email, cc.name)
				out.skipped++
				continue
			}
			exists, err := s.Contacts.ExistsByEmail(ctx, cc.id, ct.Email)
			if err != nil {
				return nil, fmt.Errorf("contact %q: %w", ct.Name, err)
			}
			if exists {
				warn(ct.SourceRow, "contact %q <%s> already exists for client %q and was skipped", ct.Name, ct.Email, cc.name)
				out.skipped++
				continue
			}
			seen[email] = true
		}
		survivors = append(survivors, i)
	}

	// Precedence: the first declared primary that survives, then the first
	// survivor. Declared contacts skipped as duplicates take no part.
	survived := make(map[int]bool, len(survivors))
	for _, i := range survivors {
		survived[i] = true
	}
	firstDeclared := -1
	var declared []int
	for i, ct := range cc.contacts {
		if !ct.IsPrimary {
			continue
		}
		if firstDeclared < 0 {
			firstDeclared = i
		}
		if survived[i] {
			declared = append(declared, i)
		}
	}

	primary := -1
	switch {
	case hasPrimary:
		for _, i := range declared {
			ct := cc.contacts[i]
			warn(ct.SourceRow, "client %q already has a primary contact; %q was added as a regular contact", cc.name, ct.Name)
		}
	case len(survivors) > 0:
		switch {
		case len(declared) > 0:
			primary = declared[0]
			if primary != firstDeclared {
				warn(cc.contacts[primary].SourceRow, "declared primary contact %q for client %q was skipped; %q was kept as primary",
					cc.contacts[firstDeclared].Name, cc.name, cc.contacts[primary].Name)
			}
		case firstDeclared >= 0:
			primary = survivors[0]
			warn(cc.contacts[primary].SourceRow, "declared primary contact %q for client %q was skipped; %q was set as primary",
				cc.contacts[firstDeclared].Name, cc.name, cc.contacts[primary].Name)
		default:
			primary = survivors[0]
			warn(cc.contacts[primary].SourceRow, "no primary contact declared for client %q; %q was set as primary", cc.name, cc.contacts[primary].Name)
		}
		for _, i := range declared {
			if i == primary {
				continue
			}
			ct := cc.contacts[i]
			warn(ct.SourceRow, "contact %q was declared primary for client %q but %q was kept; demoted", ct.Name, cc.name, cc.contacts[primary].Name)
		}
	}

	for _, i := range survivors {
		ct := cc.contacts[i]
		contact := &domain.Contact{
			ClientID:    cc.id,
			Name:        ct.Name,
			Email:       ct.Email,
			Phone:       ct.Phone,
			Designation: ct.Designation,
			IsPrimary:   i == primary,
			Notes:       ct.Notes,
			LinkedIn:    ct.LinkedIn,
			Twitter:     ct.Twitter,
			CreatedBy:   actor.UserID,
		}
		if err := s.Contacts.Create(ctx, contact); err != nil {
			return nil, fmt.Errorf("contact %q: %w", ct.Name, err)
		}
		out.created = append(out.created, domain.CreatedContact{
			ID:         contact.ID,
			Name:       contact.Name,
			Email:      contact.Email,
			ClientName: cc.name,
		})
	}
	return out, nil
}

// contactBatches groups whole clients into batches of roughly size contacts.
// A client's contacts never straddle two batches, so a client with more
// than size contacts gets a batch of its own.
func contactBatches(clients []*clientContacts, size int) [][]*clientContacts {
	var (
		batches [][]*clientContacts
		cur     []*clientContacts
		count   int
	)
	for _, cc := range clients {
		if len(cur) > 0 && count+len(cc.contacts) > size {
			batches = append(batches, cur)
			cur, count = nil, 0
		}
		cur = append(cur, cc)
		count += len(cc.contacts)
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
