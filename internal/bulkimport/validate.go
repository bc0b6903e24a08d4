package bulkimport

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"lawdesk/internal/domain"
)

var (
	validate = validator.New()

	phonePattern = regexp.MustCompile(`^[0-9+().\-\sxX]+$`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

const minPhoneDigits = 5

// rowIssues collects the findings for one parsed row.
type rowIssues struct {
	errors   []domain.ValidationError
	warnings []domain.Warning
	// excluded rows cannot be bucketed into a group or client.
	excluded       bool
	clientBlocked  bool
	contactBlocked bool
}

func (ri *rowIssues) fail(row int, field, format string, args ...interface{}) {
	ri.errors = append(ri.errors, domain.ValidationError{Row: row, Field: field, Message: fmt.Sprintf(format, args...)})
}

// validateClientFields checks the identity and client columns of a row. It
// runs once per physical spreadsheet line.
func validateClientFields(row *domain.ParsedRow) rowIssues {
	var ri rowIssues
	if row.GroupName == "" {
		ri.fail(row.RowNumber, "group_name", "group name is required")
		ri.excluded = true
	}
	if row.ClientName == "" {
		ri.fail(row.RowNumber, "client_name", "client name is required")
		ri.excluded = true
	}
	if row.Website != "" && !validWebsite(row.Website) {
		ri.fail(row.RowNumber, "website", "invalid website URL %q", row.Website)
		ri.clientBlocked = true
	}
	if row.ReferenceToken != "" {
		if _, err := parseReferenceToken(row.ReferenceToken); err != nil {
			ri.fail(row.RowNumber, "reference", "%v", err)
			ri.clientBlocked = true
		}
	}
	return ri
}

// validateContactFields checks one expanded contact. Format checks only run
// on non-empty values.
func validateContactFields(row *domain.ParsedRow) rowIssues {
	var ri rowIssues
	if !row.HasContact() {
		return ri
	}
	if row.ContactName == "" {
		ri.fail(row.RowNumber, "contact_name", "contact name is required when contact details are given")
		ri.contactBlocked = true
	}
	if row.Email != "" && validate.Var(row.Email, "email") != nil {
		ri.fail(row.RowNumber, "email", "invalid email %q", row.Email)
		ri.contactBlocked = true
	}
	if row.Phone != "" && !validPhone(row.Phone) {
		ri.fail(row.RowNumber, "phone", "invalid phone number %q", row.Phone)
		ri.contactBlocked = true
	}
	return ri
}

// validWebsite accepts bare hosts such as "acme.com" by validating them as
// https URLs. The stored value is left as entered.
func validWebsite(site string) bool {
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	return validate.Var(site, "url") == nil
}

func validPhone(phone string) bool {
	return phonePattern.MatchString(phone) && len(digitPattern.FindAllString(phone, -1)) >= minPhoneDigits
}

// NewSubmissionValidator returns a validator for previews sent back for
// commit. It knows the "website" and "phone" tags used on candidate structs.
func NewSubmissionValidator() *validator.Validate {
	v := validator.New()
	for tag, check := range map[string]func(string) bool{
		"website": validWebsite,
		"phone":   validPhone,
	} {
		check := check
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("bulkimport: registering %q validation: %v", tag, err))
		}
	}
	return v
}

// CheckReferences reports the first client whose reference user ids are not
// exactly the ids its reference token names. Ids are checked against stored
// users only while the preview is built.
func CheckReferences(preview *domain.PreviewData) error {
	for i := range preview.Clients {
		c := &preview.Clients[i]
		var want []int64
		if c.ReferenceToken != "" {
			ids, err := parseReferenceToken(c.ReferenceToken)
			if err != nil {
				return fmt.Errorf("client %q: %w", c.Name, err)
			}
			want = ids
		}
		if !slices.Equal(want, c.ReferenceUserIDs) {
			return fmt.Errorf("client %q: reference %q does not match reference user ids %v", c.Name, c.ReferenceToken, c.ReferenceUserIDs)
		}
	}
	return nil
}
