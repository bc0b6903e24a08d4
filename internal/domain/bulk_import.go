package domain

// ParsedRow is one spreadsheet line reduced to typed fields. A physical line
// holding several contacts expands into several ParsedRows sharing RowNumber.
type ParsedRow struct {
	RowNumber int `json:"row_number"`

	GroupName      string `json:"group_name"`
	ClientName     string `json:"client_name"`
	Industry       string `json:"industry"`
	Website        string `json:"website"`
	Address        string `json:"address"`
	ClientCode     string `json:"client_code"`
	ClientNotes    string `json:"client_notes"`
	ReferenceToken string `json:"reference_token"`

	ContactName  string `json:"contact_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Designation  string `json:"designation"`
	IsPrimary    bool   `json:"is_primary"`
	ContactNotes string `json:"contact_notes"`
	LinkedIn     string `json:"linkedin"`
	Twitter      string `json:"twitter"`
}

// HasContact reports whether the row carries any contact data. The primary
// flag alone does not make a contact.
func (r *ParsedRow) HasContact() bool {
	return r.ContactName != "" || r.Email != "" || r.Phone != "" || r.Designation != "" ||
		r.ContactNotes != "" || r.LinkedIn != "" || r.Twitter != ""
}

// CandidateGroup is a group derived from the upload, keyed by lower-cased name.
type CandidateGroup struct {
	Name       string `json:"name" validate:"required,max=255"`
	Exists     bool   `json:"exists"`
	ExistingID *int64 `json:"existing_id,omitempty"`
	Row        int    `json:"row"`
}

// CandidateClient is the merged view of every row sharing a (group, client) key.
// ReferenceUserIDs holds the validated referrer ids; the first is canonical.
// Blocked clients carry a client-scoped error and are never committed.
type CandidateClient struct {
	Name             string  `json:"name" validate:"required,max=255"`
	GroupName        string  `json:"group_name" validate:"required,max=255"`
	Industry         string  `json:"industry" validate:"max=100"`
	Website          string  `json:"website" validate:"omitempty,website,max=255"`
	Address          string  `json:"address" validate:"max=500"`
	Code             string  `json:"code" validate:"max=50"`
	Notes            string  `json:"notes"`
	ReferenceToken   string  `json:"reference_token" validate:"max=100"`
	ReferenceUserIDs []int64 `json:"reference_user_ids,omitempty" validate:"dive,gt=0"`
	Exists           bool    `json:"exists"`
	ExistingID       *int64  `json:"existing_id,omitempty"`
	Row              int     `json:"row"`
	Rows             []int   `json:"rows,omitempty"`
	Blocked          bool    `json:"blocked,omitempty"`
}

// CandidateContact is one contact to be created under a candidate client.
type CandidateContact struct {
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Phone       string `json:"phone" validate:"omitempty,phone,max=50"`
	Designation string `json:"designation" validate:"max=100"`
	IsPrimary   bool   `json:"is_primary"`
	Notes       string `json:"notes" validate:"max=2000"`
	LinkedIn    string `json:"linkedin" validate:"max=255"`
	Twitter     string `json:"twitter" validate:"max=255"`
	ClientName  string `json:"client_name" validate:"required,max=255"`
	GroupName   string `json:"group_name" validate:"required,max=255"`
	SourceRow   int    `json:"source_row"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// ValidationError blocks the fact it names. Row 0 means the error is not tied
// to a single spreadsheet line.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Warning is informational; the import proceeds with an adjusted behavior.
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// PreviewData is the reviewable, not yet persisted form of an upload.
type PreviewData struct {
	Groups   []CandidateGroup   `json:"groups" validate:"dive"`
	Clients  []CandidateClient  `json:"clients" validate:"dive"`
	Contacts []CandidateContact `json:"contacts" validate:"dive"`
	Errors   []ValidationError  `json:"errors"`
	Warnings []Warning          `json:"warnings"`
}

// HasErrors reports whether the preview carries any blocking error.
func (p *PreviewData) HasErrors() bool {
	return len(p.Errors) > 0
}

// CreatedGroup is an audit entry for a group created by a commit.
type CreatedGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreatedClient is an audit entry for a client created by a commit.
type CreatedClient struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	GroupName string `json:"group_name"`
}

// CreatedContact is an audit entry for a contact created by a commit.
type CreatedContact struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ClientName string `json:"client_name"`
}

// UploadResult is the audit record of one commit.
type UploadResult struct {
	ImportID        string            `json:"import_id"`
	GroupsCreated   int               `json:"groups_created"`
	GroupsExisting  int               `json:"groups_existing"`
	ClientsCreated  int               `json:"clients_created"`
	ClientsExisting int               `json:"clients_existing"`
	ContactsCreated int               `json:"contacts_created"`
	ContactsSkipped int               `json:"contacts_skipped"`
	CreatedGroups   []CreatedGroup    `json:"created_groups"`
	CreatedClients  []CreatedClient   `json:"created_clients"`
	CreatedContacts []CreatedContact  `json:"created_contacts"`
	Errors          []ValidationError `json:"errors"`
	Warnings        []Warning         `json:"warnings"`
	// ResultsURL is a time-limited download link for the archived results workbook.
	ResultsURL string `json:"results_url,omitempty"`
}

// Actor is the authenticated user performing an import.
type Actor struct {
	UserID int64    `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
}
