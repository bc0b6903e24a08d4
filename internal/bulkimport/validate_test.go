package bulkimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/domain"
)

func TestSubmissionValidator(t *testing.T) {
	v := NewSubmissionValidator()

	ok := domain.CandidateClient{Name: "Acme Corp", GroupName: "Acme", Website: "acme.com"}
	assert.NoError(t, v.Struct(ok), "bare hosts are accepted like in the spreadsheet")

	ok.Website = ""
	assert.NoError(t, v.Struct(ok))

	contact := domain.CandidateContact{Name: "Jane", ClientName: "Acme Corp", GroupName: "Acme", Phone: "+1 (555) 111-2222"}
	assert.NoError(t, v.Struct(contact))

	contact.Email = "jane.example.com"
	assert.Error(t, v.Struct(contact))
}

func TestCheckReferences_AcceptsBuiltPreview(t *testing.T) {
	m := newMemStore(18, 19)
	p := buildPreview(t, m, grid(
		line("Acme", "Acme Corp", "Tech", "", "", "", "", "18/19/18"),
		line("Globex", "Globex Retail", "Retail"),
	))
	require.Empty(t, p.Errors)

	assert.NoError(t, CheckReferences(p))
}

func TestCheckReferences_RejectsMismatch(t *testing.T) {
	tests := []struct {
		name   string
		client domain.CandidateClient
	}{
		{"token only", domain.CandidateClient{Name: "Acme Corp", ReferenceToken: "18"}},
		{"ids only", domain.CandidateClient{Name: "Acme Corp", ReferenceUserIDs: []int64{18}}},
		{"reordered", domain.CandidateClient{Name: "Acme Corp", ReferenceToken: "18/19", ReferenceUserIDs: []int64{19, 18}}},
		{"malformed token", domain.CandidateClient{Name: "Acme Corp", ReferenceToken: "18-19", ReferenceUserIDs: []int64{18}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckReferences(&domain.PreviewData{Clients: []domain.CandidateClient{tt.client}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Acme Corp")
		})
	}
}
