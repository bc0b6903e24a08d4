package bulkimport

import (
	"fmt"

	"lawdesk/internal/domain"
)

// DefaultMaxRows is the data-row ceiling used when none is configured.
const DefaultMaxRows = 5000

// Parser turns a raw sheet grid into ParsedRows.
type Parser struct {
	MaxRows int
}

// NewParser creates a Parser that rejects sheets with more than maxRows data rows.
func NewParser(maxRows int) *Parser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Parser{MaxRows: maxRows}
}

// carry holds the values a merged cell leaves blank in the rows below it.
type carry struct {
	group     string
	client    string
	reference string
}

// next folds one row's group, client and reference cells into the carry.
// A new group forgets the client and reference; a new client forgets the
// reference, since a merged cell never spans two clients.
func (c carry) next(group, client, reference string) carry {
	if group != "" && groupKey(group) != groupKey(c.group) {
		c = carry{group: group}
	}
	if client != "" && groupKey(client) != groupKey(c.client) {
		c.client = client
		c.reference = ""
	}
	if reference != "" {
		c.reference = reference
	}
	return c
}

// Parse converts grid (first row = header) into ParsedRows. Missing mandatory
// columns and oversized sheets are fatal; everything else is left to the
// preview builder.
func (p *Parser) Parse(grid [][]string) ([]domain.ParsedRow, error) {
	if len(grid) == 0 {
		return nil, domain.ErrEmptyWorkbook
	}
	cols, err := ResolveColumns(grid[0])
	if err != nil {
		return nil, err
	}

	data := grid[1:]
	for len(data) > 0 && isBlankRow(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	if len(data) > p.MaxRows {
		return nil, fmt.Errorf("%w: %d data rows, limit is %d", domain.ErrTooManyRows, len(data), p.MaxRows)
	}

	var (
		rows []domain.ParsedRow
		cur  carry
	)
	for i, raw := range data {
		if isBlankRow(raw) {
			continue
		}
		cell := func(f Field) string {
			return normalize(cols.Cell(raw, f), MaxLen(f))
		}

		cur = cur.next(cell(FieldGroupName), cell(FieldClientName), cell(FieldReference))
		if cur.group == "" && cur.client == "" {
			continue
		}

		base := domain.ParsedRow{
			RowNumber:      i + 2,
			GroupName:      cur.group,
			ClientName:     cur.client,
			Industry:       cell(FieldIndustry),
			Website:        cell(FieldWebsite),
			Address:        cell(FieldAddress),
			ClientCode:     cell(FieldClientCode),
			ClientNotes:    cell(FieldClientNotes),
			ReferenceToken: cur.reference,
		}
		rows = append(rows, expandContacts(base, raw, &cols)...)
	}
	return rows, nil
}

// expandContacts splits the multi-value contact cells of raw into one row per
// contact. Only the first entry keeps the single-valued contact fields.
func expandContacts(base domain.ParsedRow, raw []string, cols *ColumnIndex) []domain.ParsedRow {
	multi := func(f Field) []string {
		return splitMulti(cols.Cell(raw, f), MaxLen(f))
	}
	names := multi(FieldContactName)
	emails := multi(FieldEmail)
	phones := multi(FieldPhone)
	designations := multi(FieldDesignation)

	n := 1
	for _, list := range [][]string{names, emails, phones, designations} {
		if len(list) > n {
			n = len(list)
		}
	}

	out := make([]domain.ParsedRow, n)
	for k := 0; k < n; k++ {
		row := base
		row.ContactName = at(names, k)
		row.Email = at(emails, k)
		row.Phone = at(phones, k)
		row.Designation = at(designations, k)
		if k == 0 {
			row.IsPrimary = isTruthy(cols.Cell(raw, FieldPrimary))
			row.ContactNotes = normalize(cols.Cell(raw, FieldContactNotes), MaxLen(FieldContactNotes))
			row.LinkedIn = normalize(cols.Cell(raw, FieldLinkedIn), MaxLen(FieldLinkedIn))
			row.Twitter = normalize(cols.Cell(raw, FieldTwitter), MaxLen(FieldTwitter))
		}
		out[k] = row
	}
	return out
}
