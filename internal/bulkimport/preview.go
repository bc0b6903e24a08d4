package bulkimport

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

// PreviewBuilder validates and merges parsed rows into a PreviewData. It only
// reads from storage, and every lookup is batched over the whole upload.
type PreviewBuilder struct {
	groups   port.GroupRepository
	clients  port.ClientRepository
	contacts port.ContactRepository
	users    port.UserRepository
	log      *logrus.Entry
}

// NewPreviewBuilder creates a PreviewBuilder.
func NewPreviewBuilder(
	groups port.GroupRepository,
	clients port.ClientRepository,
	contacts port.ContactRepository,
	users port.UserRepository,
	log *logrus.Entry,
) *PreviewBuilder {
	return &PreviewBuilder{groups: groups, clients: clients, contacts: contacts, users: users, log: log}
}

// previewState is local to one Build call.
type previewState struct {
	groupOrder  []string
	groups      map[string]*domain.CandidateGroup
	clientOrder []string
	clients     map[string]*clientDraft
	contacts    []domain.CandidateContact
	// duplicates holds indexes into contacts that the commit will skip.
	duplicates  map[int]bool
	errors      []domain.ValidationError
	warnings    []domain.Warning
}

// Build produces the preview for rows. Data problems are reported inside the
// returned PreviewData; the error return is reserved for storage failures.
func (b *PreviewBuilder) Build(ctx context.Context, rows []domain.ParsedRow, actor domain.Actor) (*domain.PreviewData, error) {
	st := &previewState{
		groups:     make(map[string]*domain.CandidateGroup),
		clients:    make(map[string]*clientDraft),
		duplicates: make(map[int]bool),
	}

	st.bucketRows(rows)
	st.warnMissingIndustry()

	if err := b.resolveGroups(ctx, st); err != nil {
		return nil, err
	}
	existing, err := b.resolveClients(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := b.checkCodes(ctx, st, existing); err != nil {
		return nil, err
	}
	if err := b.resolveReferences(ctx, st); err != nil {
		return nil, err
	}
	if err := b.flagDuplicateContacts(ctx, st); err != nil {
		return nil, err
	}
	st.predictPrimaries()

	preview := st.result()
	b.log.WithFields(logrus.Fields{
		"user_id":  actor.UserID,
		"rows":     len(rows),
		"groups":   len(preview.Groups),
		"clients":  len(preview.Clients),
		"contacts": len(preview.Contacts),
		"errors":   len(preview.Errors),
		"warnings": len(preview.Warnings),
	}).Info("bulkimport.Preview: built")
	return preview, nil
}

// bucketRows validates each row and folds it into candidate groups, clients
// and contacts.
func (st *previewState) bucketRows(rows []domain.ParsedRow) {
	checkedLines := make(map[int]bool)
	excludedLines := make(map[int]bool)

	for i := range rows {
		row := &rows[i]

		if !checkedLines[row.RowNumber] {
			checkedLines[row.RowNumber] = true
			ri := validateClientFields(row)
			st.collect(ri)
			if ri.excluded {
				excludedLines[row.RowNumber] = true
			}
			if !ri.excluded {
				draft := st.draftFor(row)
				if ri.clientBlocked {
					draft.client.Blocked = true
				}
			}
		}
		if excludedLines[row.RowNumber] {
			continue
		}

		ck := clientKey(row.GroupName, row.ClientName)
		st.clients[ck].absorb(row, &st.errors, &st.warnings)

		ci := validateContactFields(row)
		st.collect(ci)
		if row.HasContact() {
			st.contacts = append(st.contacts, domain.CandidateContact{
				Name:        row.ContactName,
				Email:       row.Email,
				Phone:       row.Phone,
				Designation: row.Designation,
				IsPrimary:   row.IsPrimary,
				Notes:       row.ContactNotes,
				LinkedIn:    row.LinkedIn,
				Twitter:     row.Twitter,
				ClientName:  st.clients[ck].client.Name,
				GroupName:   st.groups[groupKey(row.GroupName)].Name,
				SourceRow:   row.RowNumber,
				Blocked:     ci.contactBlocked,
			})
		}
	}
}

func (st *previewState) collect(ri rowIssues) {
	st.errors = append(st.errors, ri.errors...)
	st.warnings = append(st.warnings, ri.warnings...)
}

// draftFor returns the client draft for row, creating its group and client
// candidates on first sight.
func (st *previewState) draftFor(row *domain.ParsedRow) *clientDraft {
	gk := groupKey(row.GroupName)
	if _, ok := st.groups[gk]; !ok {
		st.groups[gk] = &domain.CandidateGroup{Name: row.GroupName, Row: row.RowNumber}
		st.groupOrder = append(st.groupOrder, gk)
	}
	ck := clientKey(row.GroupName, row.ClientName)
	draft, ok := st.clients[ck]
	if !ok {
		draft = newClientDraft(row)
		draft.client.GroupName = st.groups[gk].Name
		st.clients[ck] = draft
		st.clientOrder = append(st.clientOrder, ck)
	}
	return draft
}

func (st *previewState) warnMissingIndustry() {
	for _, ck := range st.clientOrder {
		c := &st.clients[ck].client
		if c.Industry == "" {
			st.warnings = append(st.warnings, domain.Warning{
				Row:     c.Row,
				Message: fmt.Sprintf("client %q has no industry", c.Name),
			})
		}
	}
}

func (b *PreviewBuilder) resolveGroups(ctx context.Context, st *previewState) error {
	if len(st.groupOrder) == 0 {
		return nil
	}
	names := make([]string, 0, len(st.groupOrder))
	for _, gk := range st.groupOrder {
		names = append(names, st.groups[gk].Name)
	}
	found, err := b.groups.FindByNames(ctx, names)
	if err != nil {
		return fmt.Errorf("bulkimport.resolveGroups: %w", err)
	}
	for i := range found {
		if g, ok := st.groups[groupKey(found[i].Name)]; ok {
			id := found[i].ID
			g.Exists = true
			g.ExistingID = &id
		}
	}
	return nil
}

// resolveClients marks candidates that already exist in their group and
// returns the matched persisted clients keyed by client key. A client is only
// the same client when its stored group is the candidate's group.
func (b *PreviewBuilder) resolveClients(ctx context.Context, st *previewState) (map[string]domain.Client, error) {
	existing := make(map[string]domain.Client)
	if len(st.clientOrder) == 0 {
		return existing, nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, ck := range st.clientOrder {
		name := st.clients[ck].client.Name
		if !seen[strings.ToLower(name)] {
			seen[strings.ToLower(name)] = true
			names = append(names, name)
		}
	}
	found, err := b.clients.FindByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("bulkimport.resolveClients: %w", err)
	}
	byName := make(map[string][]domain.Client)
	for i := range found {
		k := strings.ToLower(found[i].Name)
		byName[k] = append(byName[k], found[i])
	}

	for _, ck := range st.clientOrder {
		c := &st.clients[ck].client
		group := st.groups[groupKey(c.GroupName)]
		matches := byName[strings.ToLower(c.Name)]

		matched := false
		if group.Exists {
			for _, m := range matches {
				if m.GroupID == *group.ExistingID {
					id := m.ID
					c.Exists = true
					c.ExistingID = &id
					existing[ck] = m
					matched = true
					break
				}
			}
		}
		if !matched && len(matches) > 0 {
			st.warnings = append(st.warnings, domain.Warning{
				Row:     c.Row,
				Message: fmt.Sprintf("a client named %q already exists in another group; a new client will be created in group %q", c.Name, c.GroupName),
			})
		}
	}
	return existing, nil
}

// checkCodes enforces global client-code uniqueness within the file and
// against stored clients.
func (b *PreviewBuilder) checkCodes(ctx context.Context, st *previewState, existing map[string]domain.Client) error {
	owner := make(map[string]string)
	var codes []string
	for _, ck := range st.clientOrder {
		d := st.clients[ck]
		c := &d.client
		if c.Code == "" {
			continue
		}
		code := strings.ToLower(c.Code)
		if first, ok := owner[code]; ok {
			st.errors = append(st.errors, domain.ValidationError{
				Row:     d.codeRow,
				Field:   "client_code",
				Message: fmt.Sprintf("client code %q is also used by client %q in this file", c.Code, st.clients[first].client.Name),
			})
			c.Blocked = true
			continue
		}
		owner[code] = ck
		codes = append(codes, c.Code)
	}
	if len(codes) == 0 {
		return nil
	}

	found, err := b.clients.FindByCodes(ctx, codes)
	if err != nil {
		return fmt.Errorf("bulkimport.checkCodes: %w", err)
	}
	for i := range found {
		holder := found[i]
		if holder.Code == nil {
			continue
		}
		ck, ok := owner[strings.ToLower(*holder.Code)]
		if !ok {
			continue
		}
		d := st.clients[ck]
		c := &d.client
		if c.Exists && *c.ExistingID == holder.ID {
			continue
		}
		st.errors = append(st.errors, domain.ValidationError{
			Row:     d.codeRow,
			Field:   "client_code",
			Message: fmt.Sprintf("client code %q is already used by existing client %q", c.Code, holder.Name),
		})
		c.Blocked = true
	}

	for _, ck := range st.clientOrder {
		stored, ok := existing[ck]
		if !ok {
			continue
		}
		c := &st.clients[ck].client
		if c.Code == "" || stored.Code == nil || strings.EqualFold(*stored.Code, c.Code) {
			continue
		}
		st.warnings = append(st.warnings, domain.Warning{
			Row:     st.clients[ck].codeRow,
			Message: fmt.Sprintf("existing client %q keeps its stored code %q; %q is ignored", c.Name, *stored.Code, c.Code),
		})
	}
	return nil
}

// resolveReferences validates every referenced user id in one lookup. The
// first id becomes the canonical referrer; the rest are recorded in notes.
func (b *PreviewBuilder) resolveReferences(ctx context.Context, st *previewState) error {
	parsed := make(map[string][]int64)
	seen := make(map[int64]bool)
	var all []int64
	for _, ck := range st.clientOrder {
		c := &st.clients[ck].client
		if c.ReferenceToken == "" {
			continue
		}
		ids, err := parseReferenceToken(c.ReferenceToken)
		if err != nil {
			// already reported against the row
			c.Blocked = true
			continue
		}
		parsed[ck] = ids
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
			}
		}
	}
	if len(all) == 0 {
		return nil
	}

	known, err := b.users.FindExistingIDs(ctx, all)
	if err != nil {
		return fmt.Errorf("bulkimport.resolveReferences: %w", err)
	}
	valid := make(map[int64]bool, len(known))
	for _, id := range known {
		valid[id] = true
	}

	for _, ck := range st.clientOrder {
		ids, ok := parsed[ck]
		if !ok {
			continue
		}
		d := st.clients[ck]
		c := &d.client

		var missing []string
		for _, id := range ids {
			if !valid[id] {
				missing = append(missing, fmt.Sprintf("%d", id))
			}
		}
		if len(missing) > 0 {
			st.errors = append(st.errors, domain.ValidationError{
				Row:     d.refRow,
				Field:   "reference",
				Message: fmt.Sprintf("unknown user id(s) in reference for client %q: %s", c.Name, strings.Join(missing, ", ")),
			})
			c.Blocked = true
			continue
		}
		c.ReferenceUserIDs = ids
		c.Notes = appendReferrerAudit(c.Notes, ids[1:])
	}
	return nil
}

// flagDuplicateContacts warns about contacts that the commit will skip
// because their email is already stored for the client or repeats an earlier
// contact of the same client in this file.
func (b *PreviewBuilder) flagDuplicateContacts(ctx context.Context, st *previewState) error {
	var ids []int64
	idToKey := make(map[int64]string)
	for _, ck := range st.clientOrder {
		c := &st.clients[ck].client
		if c.Exists {
			ids = append(ids, *c.ExistingID)
			idToKey[*c.ExistingID] = ck
		}
	}

	stored := make(map[string]map[string]bool)
	if len(ids) > 0 {
		emails, err := b.contacts.ListEmailsByClientIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("bulkimport.flagDuplicateContacts: %w", err)
		}
		for _, e := range emails {
			ck := idToKey[e.ClientID]
			if stored[ck] == nil {
				stored[ck] = make(map[string]bool)
			}
			stored[ck][strings.ToLower(e.Email)] = true
		}
	}

	inFile := make(map[string]map[string]bool)
	for i := range st.contacts {
		ct := &st.contacts[i]
		if ct.Email == "" || ct.Blocked {
			continue
		}
		ck := clientKey(ct.GroupName, ct.ClientName)
		email := strings.ToLower(ct.Email)
		switch {
		case stored[ck][email]:
			st.duplicates[i] = true
			st.warnings = append(st.warnings, domain.Warning{
				Row:     ct.SourceRow,
				Message: fmt.Sprintf("contact %q <%s> already exists for client %q and will be skipped", ct.Name, ct.Email, ct.ClientName),
			})
		case inFile[ck][email]:
			st.duplicates[i] = true
			st.warnings = append(st.warnings, domain.Warning{
				Row:     ct.SourceRow,
				Message: fmt.Sprintf("contact %q <%s> repeats an earlier contact of client %q and will be skipped", ct.Name, ct.Email, ct.ClientName),
			})
		default:
			if inFile[ck] == nil {
				inFile[ck] = make(map[string]bool)
			}
			inFile[ck][email] = true
		}
	}
	return nil
}

// predictPrimaries warns when a client declares zero or several primary
// contacts, counting only contacts the commit will create. The commit makes
// the final decision.
func (st *previewState) predictPrimaries() {
	byClient := make(map[string][]*domain.CandidateContact)
	firstDeclared := make(map[string]*domain.CandidateContact)
	for i := range st.contacts {
		ct := &st.contacts[i]
		if ct.Blocked {
			continue
		}
		ck := clientKey(ct.GroupName, ct.ClientName)
		if ct.IsPrimary && firstDeclared[ck] == nil {
			firstDeclared[ck] = ct
		}
		if st.duplicates[i] {
			continue
		}
		byClient[ck] = append(byClient[ck], ct)
	}

	for _, ck := range st.clientOrder {
		contacts := byClient[ck]
		if len(contacts) == 0 {
			continue
		}
		var declared []*domain.CandidateContact
		for _, ct := range contacts {
			if ct.IsPrimary {
				declared = append(declared, ct)
			}
		}
		clientName := st.clients[ck].client.Name
		first := firstDeclared[ck]
		switch {
		case first != nil && (len(declared) == 0 || declared[0] != first):
			kept := contacts[0]
			if len(declared) > 0 {
				kept = declared[0]
			}
			st.warnings = append(st.warnings, domain.Warning{
				Row:     kept.SourceRow,
				Message: fmt.Sprintf("declared primary contact %q for client %q will be skipped; %q will be set as primary", first.Name, clientName, kept.Name),
			})
		case len(declared) == 0:
			st.warnings = append(st.warnings, domain.Warning{
				Row:     contacts[0].SourceRow,
				Message: fmt.Sprintf("no primary contact declared for client %q; the first contact created (%q) will be set as primary", clientName, contacts[0].Name),
			})
		}
		if len(declared) > 1 {
			st.warnings = append(st.warnings, domain.Warning{
				Row:     declared[1].SourceRow,
				Message: fmt.Sprintf("%d primary contacts declared for client %q; keeping %q, the others will be demoted", len(declared), clientName, declared[0].Name),
			})
		}
	}
}

func (st *previewState) result() *domain.PreviewData {
	preview := &domain.PreviewData{
		Groups:   make([]domain.CandidateGroup, 0, len(st.groupOrder)),
		Clients:  make([]domain.CandidateClient, 0, len(st.clientOrder)),
		Contacts: st.contacts,
		Errors:   st.errors,
		Warnings: st.warnings,
	}
	for _, gk := range st.groupOrder {
		preview.Groups = append(preview.Groups, *st.groups[gk])
	}
	for _, ck := range st.clientOrder {
		preview.Clients = append(preview.Clients, st.clients[ck].client)
	}
	if preview.Contacts == nil {
		preview.Contacts = []domain.CandidateContact{}
	}
	if preview.Errors == nil {
		preview.Errors = []domain.ValidationError{}
	}
	if preview.Warnings == nil {
		preview.Warnings = []domain.Warning{}
	}
	sort.SliceStable(preview.Errors, func(i, j int) bool { return preview.Errors[i].Row < preview.Errors[j].Row })
	sort.SliceStable(preview.Warnings, func(i, j int) bool { return preview.Warnings[i].Row < preview.Warnings[j].Row })
	return preview
}
