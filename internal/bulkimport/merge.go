package bulkimport

import (
	"fmt"
	"strings"

	"lawdesk/internal/domain"
)

const noteSeparator = "; "

// clientDraft accumulates every row that shares one (group, client) key.
type clientDraft struct {
	client  domain.CandidateClient
	codeRow int
	refRow  int
}

func newClientDraft(row *domain.ParsedRow) *clientDraft {
	d := &clientDraft{
		client: domain.CandidateClient{
			Name:      row.ClientName,
			GroupName: row.GroupName,
			Row:       row.RowNumber,
		},
	}
	return d
}

// absorb merges row into the draft. Scalars are first-non-empty-wins with a
// warning on disagreement, notes accumulate, and a second client code is an
// error that blocks the client.
func (d *clientDraft) absorb(row *domain.ParsedRow, errs *[]domain.ValidationError, warns *[]domain.Warning) {
	c := &d.client
	if n := len(c.Rows); n == 0 || c.Rows[n-1] != row.RowNumber {
		c.Rows = append(c.Rows, row.RowNumber)
	}

	mergeScalar := func(label string, current *string, incoming string) {
		if incoming == "" {
			return
		}
		if *current == "" {
			*current = incoming
			return
		}
		if !strings.EqualFold(*current, incoming) {
			*warns = append(*warns, domain.Warning{
				Row: row.RowNumber,
				Message: fmt.Sprintf("conflicting %s for client %q: keeping %q, ignoring %q",
					label, c.Name, *current, incoming),
			})
		}
	}
	mergeScalar("industry", &c.Industry, row.Industry)
	mergeScalar("website", &c.Website, row.Website)
	mergeScalar("address", &c.Address, row.Address)

	if row.ReferenceToken != "" && c.ReferenceToken == "" {
		d.refRow = row.RowNumber
	}
	mergeScalar("reference", &c.ReferenceToken, row.ReferenceToken)

	if row.ClientNotes != "" {
		c.Notes = appendNote(c.Notes, row.ClientNotes)
	}

	switch {
	case row.ClientCode == "":
	case c.Code == "":
		c.Code = row.ClientCode
		d.codeRow = row.RowNumber
	case !strings.EqualFold(c.Code, row.ClientCode):
		*errs = append(*errs, domain.ValidationError{
			Row:   row.RowNumber,
			Field: "client_code",
			Message: fmt.Sprintf("conflicting client codes for client %q: %q (row %d) and %q (row %d)",
				c.Name, c.Code, d.codeRow, row.ClientCode, row.RowNumber),
		})
		c.Blocked = true
	}
}

// appendNote adds fragment to notes unless an identical fragment is present.
func appendNote(notes, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return notes
	}
	if notes == "" {
		return fragment
	}
	for _, existing := range strings.Split(notes, noteSeparator) {
		if strings.TrimSpace(existing) == fragment {
			return notes
		}
	}
	return notes + noteSeparator + fragment
}
