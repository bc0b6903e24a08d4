package bulkimport

import (
	"strconv"

	"lawdesk/internal/domain"
	"lawdesk/internal/port"
)

// Sheet names used by the generated workbooks.
const (
	SheetTemplate        = "Clients"
	SheetSummary         = "Summary"
	SheetCreatedGroups   = "Created Groups"
	SheetCreatedClients  = "Created Clients"
	SheetCreatedContacts = "Created Contacts"
	SheetErrors          = "Errors"
	SheetWarnings        = "Warnings"
)

// TemplateSheet returns the blank import template with illustrative rows.
// The second Acme row leaves group, client and reference blank the way a
// merged cell exports.
func TemplateSheet() port.Sheet {
	return port.Sheet{
		Name: SheetTemplate,
		Rows: [][]string{
			TemplateHeader(),
			{"Acme", "Acme Corp", "Technology", "https://acme.example", "1 Main Street, Springfield", "AC1", "Key account", "18",
				"Jane Doe", "jane@acme.example", "555-1111", "CEO", "Y", "Prefers email", "linkedin.com/in/janedoe", "@janedoe"},
			{"", "", "", "", "", "", "", "",
				"Bob Roe", "bob@acme.example", "555-2222", "CFO", "N", "", "", ""},
			{"Globex Holdings", "Globex Retail", "Retail", "globex.example", "", "GX7", "", "18/19",
				"Ann Lee, Raj Patel", "ann@globex.example, raj@globex.example", "555-3333 / 555-4444", "Counsel / Director", "", "", "", ""},
		},
	}
}

// PreviewSheet renders preview in the template layout so a corrected file can
// be uploaded again. Each contact gets a row; client fields appear on the
// client's first row only, and a client without contacts gets one row.
func PreviewSheet(preview *domain.PreviewData) port.Sheet {
	byClient := make(map[string][]domain.CandidateContact)
	for _, ct := range preview.Contacts {
		k := clientKey(ct.GroupName, ct.ClientName)
		byClient[k] = append(byClient[k], ct)
	}

	rows := [][]string{TemplateHeader()}
	for i := range preview.Clients {
		cl := &preview.Clients[i]
		contacts := byClient[clientKey(cl.GroupName, cl.Name)]

		first := make([]string, fieldCount)
		first[FieldGroupName] = cl.GroupName
		first[FieldClientName] = cl.Name
		first[FieldIndustry] = cl.Industry
		first[FieldWebsite] = cl.Website
		first[FieldAddress] = cl.Address
		first[FieldClientCode] = cl.Code
		first[FieldClientNotes] = cl.Notes
		first[FieldReference] = referenceCell(cl)

		if len(contacts) == 0 {
			rows = append(rows, first)
			continue
		}
		for j, ct := range contacts {
			row := first
			if j > 0 {
				row = make([]string, fieldCount)
				row[FieldGroupName] = cl.GroupName
				row[FieldClientName] = cl.Name
			}
			row[FieldContactName] = ct.Name
			row[FieldEmail] = ct.Email
			row[FieldPhone] = ct.Phone
			row[FieldDesignation] = ct.Designation
			row[FieldPrimary] = yesNo(ct.IsPrimary)
			row[FieldContactNotes] = ct.Notes
			row[FieldLinkedIn] = ct.LinkedIn
			row[FieldTwitter] = ct.Twitter
			rows = append(rows, row)
		}
	}
	return port.Sheet{Name: SheetTemplate, Rows: rows}
}

func referenceCell(cl *domain.CandidateClient) string {
	if cl.ReferenceToken != "" {
		return cl.ReferenceToken
	}
	return formatReferenceIDs(cl.ReferenceUserIDs)
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// ResultSheets renders result as a workbook. Sheets without data rows are
// omitted; Summary is always present.
func ResultSheets(result *domain.UploadResult) []port.Sheet {
	itoa := strconv.Itoa
	sheets := []port.Sheet{{
		Name: SheetSummary,
		Rows: [][]string{
			{"Metric", "Count"},
			{"Groups created", itoa(result.GroupsCreated)},
			{"Groups existing", itoa(result.GroupsExisting)},
			{"Clients created", itoa(result.ClientsCreated)},
			{"Clients existing", itoa(result.ClientsExisting)},
			{"Contacts created", itoa(result.ContactsCreated)},
			{"Contacts skipped", itoa(result.ContactsSkipped)},
			{"Errors", itoa(len(result.Errors))},
			{"Warnings", itoa(len(result.Warnings))},
		},
	}}

	add := func(name string, header []string, rows [][]string) {
		if len(rows) == 0 {
			return
		}
		sheets = append(sheets, port.Sheet{Name: name, Rows: append([][]string{header}, rows...)})
	}

	var groups [][]string
	for _, g := range result.CreatedGroups {
		groups = append(groups, []string{id(g.ID), g.Name})
	}
	add(SheetCreatedGroups, []string{"ID", "Name"}, groups)

	var clients [][]string
	for _, c := range result.CreatedClients {
		clients = append(clients, []string{id(c.ID), c.Name, c.GroupName})
	}
	add(SheetCreatedClients, []string{"ID", "Name", "Group"}, clients)

	var contacts [][]string
	for _, c := range result.CreatedContacts {
		contacts = append(contacts, []string{id(c.ID), c.Name, c.Email, c.ClientName})
	}
	add(SheetCreatedContacts, []string{"ID", "Name", "Email", "Client"}, contacts)

	var errs [][]string
	for _, e := range result.Errors {
		errs = append(errs, []string{rowCell(e.Row), e.Message})
	}
	add(SheetErrors, []string{"Row", "Message"}, errs)

	var warns [][]string
	for _, w := range result.Warnings {
		warns = append(warns, []string{rowCell(w.Row), w.Message})
	}
	add(SheetWarnings, []string{"Row", "Message"}, warns)

	return sheets
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// rowCell leaves upload-scoped entries (row 0) blank.
func rowCell(row int) string {
	if row == 0 {
		return ""
	}
	return strconv.Itoa(row)
}
