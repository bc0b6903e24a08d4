// Package bulkimport turns client spreadsheets into previews, commits approved
// previews in bounded batches and renders both back into sheets.
package bulkimport

import (
	"fmt"
	"strings"

	"lawdesk/internal/domain"
)

// Field is a logical spreadsheet column.
type Field int

const (
	FieldGroupName Field = iota
	FieldClientName
	FieldIndustry
	FieldWebsite
	FieldAddress
	FieldClientCode
	FieldClientNotes
	FieldReference
	FieldContactName
	FieldEmail
	FieldPhone
	FieldDesignation
	FieldPrimary
	FieldContactNotes
	FieldLinkedIn
	FieldTwitter

	fieldCount
)

type columnSpec struct {
	header   string
	synonyms []string
	maxLen   int
}

// columnSpecs is indexed by Field. header is the canonical template header;
// synonyms are matched in order against normalized header cells.
var columnSpecs = [fieldCount]columnSpec{
	FieldGroupName:    {"Group Name", []string{"group name", "group"}, 255},
	FieldClientName:   {"Client Name", []string{"client name", "company name", "client", "company"}, 255},
	FieldIndustry:     {"Industry", []string{"industry", "sector"}, 100},
	FieldWebsite:      {"Website", []string{"website", "url", "web"}, 255},
	FieldAddress:      {"Address", []string{"address"}, 500},
	FieldClientCode:   {"Client Code", []string{"client code", "code"}, 50},
	FieldClientNotes:  {"Client Notes", []string{"client notes", "notes"}, 2000},
	FieldReference:    {"Partner ID", []string{"partner id", "reference id", "referred by", "referrer", "partner", "reference"}, 100},
	FieldContactName:  {"Contact Name", []string{"contact name", "name"}, 255},
	FieldEmail:        {"Email", []string{"email", "e-mail"}, 255},
	FieldPhone:        {"Phone", []string{"phone", "number", "mobile"}, 50},
	FieldDesignation:  {"Designation", []string{"designation", "title", "position"}, 100},
	FieldPrimary:      {"Primary Contact", []string{"primary contact", "is primary", "primary"}, 10},
	FieldContactNotes: {"Contact Notes", []string{"contact notes"}, 2000},
	FieldLinkedIn:     {"LinkedIn", []string{"linkedin"}, 255},
	FieldTwitter:      {"Twitter", []string{"twitter"}, 255},
}

// resolveOrder is the priority in which fields claim header columns during
// substring matching. Narrow synonyms go before broad ones so that, e.g.,
// "Email Address" is taken by email before address sees it.
var resolveOrder = []Field{
	FieldGroupName,
	FieldClientName,
	FieldClientCode,
	FieldContactNotes,
	FieldClientNotes,
	FieldReference,
	FieldPrimary,
	FieldContactName,
	FieldEmail,
	FieldLinkedIn,
	FieldTwitter,
	FieldPhone,
	FieldDesignation,
	FieldIndustry,
	FieldWebsite,
	FieldAddress,
}

// MaxLen returns the maximum rune count kept for f.
func MaxLen(f Field) int {
	return columnSpecs[f].maxLen
}

// TemplateHeader returns the canonical header row.
func TemplateHeader() []string {
	header := make([]string, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		header[f] = columnSpecs[f].header
	}
	return header
}

// ColumnIndex maps each Field to its position in the uploaded header row, -1
// when the upload has no such column.
type ColumnIndex [fieldCount]int

// Has reports whether f was found in the header.
func (ci *ColumnIndex) Has(f Field) bool {
	return ci[f] >= 0
}

// Cell returns the raw value of f in row, or "" when absent.
func (ci *ColumnIndex) Cell(row []string, f Field) string {
	pos := ci[f]
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// ResolveColumns matches header cells to fields. Exact matches are resolved
// first, then substring matches; each header column is claimed at most once.
func ResolveColumns(header []string) (ColumnIndex, error) {
	var ci ColumnIndex
	for i := range ci {
		ci[i] = -1
	}

	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}
	claimed := make([]bool, len(header))

	claim := func(f Field, match func(cell, synonym string) bool) {
		if ci[f] >= 0 {
			return
		}
		for _, syn := range columnSpecs[f].synonyms {
			for pos, cell := range normalized {
				if claimed[pos] || cell == "" {
					continue
				}
				if match(cell, syn) {
					ci[f] = pos
					claimed[pos] = true
					return
				}
			}
		}
	}

	for _, f := range resolveOrder {
		claim(f, func(cell, syn string) bool { return cell == syn })
	}
	for _, f := range resolveOrder {
		claim(f, strings.Contains)
	}

	var missing []string
	for _, f := range []Field{FieldGroupName, FieldClientName} {
		if ci[f] < 0 {
			missing = append(missing, columnSpecs[f].header)
		}
	}
	if len(missing) > 0 {
		return ci, fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return ci, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.Join(strings.Fields(h), " "))
	return strings.TrimSpace(strings.TrimRight(h, "*:"))
}
