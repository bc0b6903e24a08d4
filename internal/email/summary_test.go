package email

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"lawdesk/internal/domain"
)

func TestBuildSummary(t *testing.T) {
	result := &domain.UploadResult{
		ImportID:        "imp-1",
		ClientsCreated:  2,
		ContactsCreated: 3,
		ResultsURL:      "https://s3.test/results.xlsx?a=1&b=2",
	}

	s := BuildSummary("Pat <Partner>", result)

	assert.Equal(t, "Client import finished: 2 clients, 3 contacts created", s.Subject)
	assert.Contains(t, s.Text, "Clients created: 2")
	assert.Contains(t, s.Text, "https://s3.test/results.xlsx?a=1&b=2")
	assert.Contains(t, s.HTML, "Pat &lt;Partner&gt;")
	assert.Contains(t, s.HTML, "a=1&amp;b=2")
}

func TestBuildSummary_CapsErrors(t *testing.T) {
	result := &domain.UploadResult{ImportID: "imp-2"}
	for i := 0; i < 12; i++ {
		result.Errors = append(result.Errors, domain.ValidationError{Row: i + 2, Message: fmt.Sprintf("bad %d", i)})
	}
	result.Errors[0].Row = 0

	s := BuildSummary("Pat", result)

	assert.Equal(t, "Client import finished with 12 errors", s.Subject)
	assert.Contains(t, s.Text, "- bad 0\n")
	assert.Contains(t, s.Text, "Row 3: bad 1")
	assert.NotContains(t, s.Text, "bad 10")
	assert.Contains(t, s.Text, "... and 2 more")
	assert.Equal(t, 1, strings.Count(s.HTML, "<ul>"))
}
