package bulkimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/domain"
)

// line builds a template-layout data row, padding missing trailing cells.
func line(values ...string) []string {
	row := make([]string, fieldCount)
	copy(row, values)
	return row
}

func grid(rows ...[]string) [][]string {
	return append([][]string{TemplateHeader()}, rows...)
}

func TestParse_AcmeRows(t *testing.T) {
	rows, err := NewParser(0).Parse(grid(
		line("Acme", "Acme Corp", "Tech", "", "", "AC1", "", "18", "Jane", "jane@acme.com", "555-1111", "CEO", "Y", ""),
		line("Acme", "Acme Corp", "Tech", "", "", "AC1", "", "18", "Bob", "bob@acme.com", "555-2222", "CFO", "N", ""),
	))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].RowNumber)
	assert.Equal(t, "Acme", rows[0].GroupName)
	assert.Equal(t, "Acme Corp", rows[0].ClientName)
	assert.Equal(t, "AC1", rows[0].ClientCode)
	assert.Equal(t, "18", rows[0].ReferenceToken)
	assert.Equal(t, "Jane", rows[0].ContactName)
	assert.True(t, rows[0].IsPrimary)
	assert.Equal(t, 3, rows[1].RowNumber)
	assert.False(t, rows[1].IsPrimary)
}

func TestParse_CarryForward(t *testing.T) {
	rows, err := NewParser(0).Parse(grid(
		line("Acme", "Acme Corp", "Tech", "", "", "", "", "18", "Jane"),
		line("", "", "", "", "", "", "", "", "Bob"),
		line("", "Acme Labs", "", "", "", "", "", "", "Cara"),
		line("Globex", "", "", "", "", "", "", "", "Dan"),
	))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Acme", rows[1].GroupName)
	assert.Equal(t, "Acme Corp", rows[1].ClientName)
	assert.Equal(t, "18", rows[1].ReferenceToken)

	assert.Equal(t, "Acme", rows[2].GroupName, "group carries into a new client")
	assert.Equal(t, "Acme Labs", rows[2].ClientName)
	assert.Empty(t, rows[2].ReferenceToken, "reference does not carry into a new client")

	assert.Equal(t, "Globex", rows[3].GroupName)
	assert.Empty(t, rows[3].ClientName, "client does not carry into a new group")
}

func TestParse_SameGroupRepeatedKeepsClient(t *testing.T) {
	rows, err := NewParser(0).Parse(grid(
		line("Acme", "Acme Corp", "", "", "", "", "", "", "Jane"),
		line("ACME", "", "", "", "", "", "", "", "Bob"),
	))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Corp", rows[1].ClientName)
}

func TestParse_SkipsBlankAndIdentityLessRows(t *testing.T) {
	rows, err := NewParser(0).Parse(grid(
		line("", "", "Tech", "", "", "", "", "", "Orphan"),
		line(),
		line("Acme", "Acme Corp"),
		line("  ", "\t"),
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].RowNumber)
	assert.False(t, rows[0].HasContact(), "client-only row survives with empty contact fields")
}

func TestParse_MultiValueCells(t *testing.T) {
	rows, err := NewParser(0).Parse(grid(
		line("Acme", "Acme Corp", "", "", "", "", "", "",
			"Jane, Bob / Cara", "jane@acme.com\nbob@acme.com", "555-1111", "CEO,CFO", "yes", "VIP", "in/jane", "@jane"),
	))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Jane", "Bob", "Cara"}, []string{rows[0].ContactName, rows[1].ContactName, rows[2].ContactName})
	assert.Equal(t, []string{"jane@acme.com", "bob@acme.com", ""}, []string{rows[0].Email, rows[1].Email, rows[2].Email})
	assert.Equal(t, []string{"555-1111", "", ""}, []string{rows[0].Phone, rows[1].Phone, rows[2].Phone})
	assert.Equal(t, []string{"CEO", "CFO", ""}, []string{rows[0].Designation, rows[1].Designation, rows[2].Designation})

	assert.True(t, rows[0].IsPrimary)
	assert.Equal(t, "VIP", rows[0].ContactNotes)
	assert.Equal(t, "in/jane", rows[0].LinkedIn)
	for _, r := range rows[1:] {
		assert.False(t, r.IsPrimary, "only the first expanded entry keeps the primary flag")
		assert.Empty(t, r.ContactNotes)
		assert.Empty(t, r.LinkedIn)
		assert.Empty(t, r.Twitter)
		assert.Equal(t, 2, r.RowNumber)
	}
}

func TestParse_NormalizesAndTruncates(t *testing.T) {
	long := strings.Repeat("x", MaxLen(FieldClientCode)+20)
	rows, err := NewParser(0).Parse(grid(
		line("  Acme   Group ", "Acme\t Corp", "", "", "", long),
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Acme Group", rows[0].GroupName)
	assert.Equal(t, "Acme Corp", rows[0].ClientName)
	assert.Len(t, rows[0].ClientCode, MaxLen(FieldClientCode))
}

func TestParse_TruthyPrimaryTokens(t *testing.T) {
	for _, token := range []string{"Y", "yes", "TRUE", "1", " y "} {
		assert.True(t, isTruthy(token), token)
	}
	for _, token := range []string{"N", "no", "0", "", "primary"} {
		assert.False(t, isTruthy(token), token)
	}
}

func TestParse_RowCeiling(t *testing.T) {
	p := NewParser(2)

	_, err := p.Parse(grid(line("A", "a"), line("B", "b"), line("C", "c")))
	require.ErrorIs(t, err, domain.ErrTooManyRows)
	assert.Contains(t, err.Error(), "3 data rows")

	rows, err := p.Parse(grid(line("A", "a"), line("B", "b"), line(), line()))
	require.NoError(t, err, "trailing blank rows do not count")
	assert.Len(t, rows, 2)
}

func TestParse_MissingColumnsAndEmptyGrid(t *testing.T) {
	_, err := NewParser(0).Parse([][]string{{"Industry"}, {"Tech"}})
	assert.ErrorIs(t, err, domain.ErrMissingColumns)

	_, err = NewParser(0).Parse(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyWorkbook)
}

func TestSplitMulti(t *testing.T) {
	assert.Nil(t, splitMulti("  ", 50))
	assert.Equal(t, []string{"a", "", "b"}, splitMulti("a,,b", 50))
	assert.Equal(t, []string{"a"}, splitMulti("a, ", 50))
	assert.Equal(t, []string{"a", "b"}, splitMulti("a\r\nb", 50))
}
