package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawdesk/internal/bulkimport"
	"lawdesk/internal/config"
	"lawdesk/internal/domain"
	"lawdesk/internal/port"
	"lawdesk/internal/service"
	"lawdesk/internal/spreadsheet"
	"lawdesk/mocks"
)

const acmeCSV = "Group Name,Client Name,Industry,Contact Name,Email,Primary Contact\n" +
	"Acme,Acme Corp,Technology,Jane Doe,jane@acme.com,Y\n"

var testActor = domain.Actor{UserID: 7, Email: "partner@firm.test", Name: "Pat Partner", Role: domain.RolePartner}

type importFixture struct {
	groups   *mocks.MockGroupRepo
	clients  *mocks.MockClientRepo
	contacts *mocks.MockContactRepo
	users    *mocks.MockUserRepo
	tx       *mocks.MockTransactor
	storage  *mocks.MockObjectStorage
	email    *mocks.MockEmailSender
	cfg      config.ImportConfig
	logs     bytes.Buffer
}

func newImportFixture() *importFixture {
	f := &importFixture{
		groups:   new(mocks.MockGroupRepo),
		clients:  new(mocks.MockClientRepo),
		contacts: new(mocks.MockContactRepo),
		users:    new(mocks.MockUserRepo),
		tx:       new(mocks.MockTransactor),
		storage:  new(mocks.MockObjectStorage),
		email:    new(mocks.MockEmailSender),
		cfg: config.ImportConfig{
			MaxRows:        100,
			BatchSize:      10,
			BatchTimeout:   time.Second,
			MaxFileSizeMB:  1,
			MaxConcurrent:  1,
			AcquireTimeout: 20 * time.Millisecond,
		},
	}
	f.tx.Stores = port.TxStores{Groups: f.groups, Clients: f.clients, Contacts: f.contacts}
	return f
}

func (f *importFixture) service() service.ImportService {
	logger := logrus.New()
	logger.SetOutput(&f.logs)
	log := logrus.NewEntry(logger)
	return service.NewImportService(service.ImportDeps{
		Codec:     spreadsheet.NewCodec(),
		Parser:    bulkimport.NewParser(f.cfg.MaxRows),
		Builder:   bulkimport.NewPreviewBuilder(f.groups, f.clients, f.contacts, f.users, log),
		Committer: bulkimport.NewCommitter(f.tx, bulkimport.CommitterConfig{BatchSize: f.cfg.BatchSize, BatchTimeout: f.cfg.BatchTimeout}, log),
		Storage:   f.storage,
		Email:     f.email,
		Bucket:    "lawdesk-test",
		Config:    f.cfg,
		Log:       log,
	})
}

// expectNewAcme sets up lookups that find nothing and inserts that assign ids.
func (f *importFixture) expectNewAcme() {
	f.groups.On("FindByNames", mock.Anything, []string{"Acme"}).Return([]domain.ClientGroup{}, nil)
	f.clients.On("FindByNames", mock.Anything, []string{"Acme Corp"}).Return([]domain.Client{}, nil)

	f.tx.On("WithinTx", mock.Anything, time.Second).Return(nil)
	f.groups.On("GetByName", mock.Anything, "Acme").Return(nil, domain.ErrNotFound)
	f.groups.On("Create", mock.Anything, mock.AnythingOfType("*domain.ClientGroup")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.ClientGroup).ID = 11 }).Return(nil)
	f.clients.On("GetByGroupAndName", mock.Anything, int64(11), "Acme Corp").Return(nil, domain.ErrNotFound)
	f.clients.On("Create", mock.Anything, mock.AnythingOfType("*domain.Client")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Client).ID = 21 }).Return(nil)
	f.contacts.On("ExistsByEmail", mock.Anything, int64(21), "jane@acme.com").Return(false, nil)
	f.contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.ClientID == 21 && c.IsPrimary
	})).Run(func(args mock.Arguments) { args.Get(1).(*domain.Contact).ID = 31 }).Return(nil)
}

func csvFile(body string) service.ImportFile {
	return service.ImportFile{Name: "clients.csv", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestImportService_Preview(t *testing.T) {
	f := newImportFixture()
	f.groups.On("FindByNames", mock.Anything, []string{"Acme"}).Return([]domain.ClientGroup{}, nil)
	f.clients.On("FindByNames", mock.Anything, []string{"Acme Corp"}).Return([]domain.Client{}, nil)

	preview, err := f.service().Preview(context.Background(), testActor, csvFile(acmeCSV))

	require.NoError(t, err)
	require.Len(t, preview.Groups, 1)
	require.Len(t, preview.Clients, 1)
	require.Len(t, preview.Contacts, 1)
	assert.False(t, preview.Groups[0].Exists)
	assert.True(t, preview.Contacts[0].IsPrimary)
	assert.Empty(t, preview.Errors)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything, mock.Anything)
}

func TestImportService_Preview_RejectsInput(t *testing.T) {
	tests := []struct {
		name string
		file service.ImportFile
		want error
	}{
		{"extension", service.ImportFile{Name: "clients.pdf", Body: strings.NewReader("x")}, domain.ErrUnsupportedFileType},
		{"declared size", service.ImportFile{Name: "clients.csv", Size: 2 << 20, Body: strings.NewReader("x")}, domain.ErrFileTooLarge},
		{"actual size", service.ImportFile{Name: "clients.csv", Body: bytes.NewReader(make([]byte, 1<<20+1))}, domain.ErrFileTooLarge},
		{"columns", csvFile("Name,Email\nJane,jane@acme.com\n"), domain.ErrMissingColumns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture()
			_, err := f.service().Preview(context.Background(), testActor, tt.file)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, service.IsInputError(err))
		})
	}
}

func TestImportService_Commit_RejectsPreviewWithErrors(t *testing.T) {
	f := newImportFixture()
	preview := &domain.PreviewData{Errors: []domain.ValidationError{{Row: 2, Field: "email", Message: "bad"}}}

	_, err := f.service().Commit(context.Background(), testActor, preview)

	assert.ErrorIs(t, err, domain.ErrPreviewHasErrors)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything, mock.Anything)
}

func TestImportService_Commit_RejectsInvalidSubmission(t *testing.T) {
	f := newImportFixture()
	preview := &domain.PreviewData{
		Clients: []domain.CandidateClient{{Name: "", GroupName: "Acme"}},
	}

	_, err := f.service().Commit(context.Background(), testActor, preview)

	assert.ErrorIs(t, err, domain.ErrInvalidPreview)
	_, err = f.service().Commit(context.Background(), testActor, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPreview)
}

func TestImportService_Commit_RejectsEditedPreview(t *testing.T) {
	client := domain.CandidateClient{Name: "Acme Corp", GroupName: "Acme", Row: 2}
	contact := domain.CandidateContact{Name: "Jane", ClientName: "Acme Corp", GroupName: "Acme", SourceRow: 2}

	tests := []struct {
		name string
		edit   func(cl *domain.CandidateClient, ct *domain.CandidateContact)
	}{
		{"token without ids", func(cl *domain.CandidateClient, _ *domain.CandidateContact) { cl.ReferenceToken = "18" }},
		{"ids without token", func(cl *domain.CandidateClient, _ *domain.CandidateContact) { cl.ReferenceUserIDs = []int64{18} }},
		{"token and ids disagree", func(cl *domain.CandidateClient, _ *domain.CandidateContact) {
			cl.ReferenceToken = "18/19"
			cl.ReferenceUserIDs = []int64{18}
		}},
		{"invalid email", func(_ *domain.CandidateClient, ct *domain.CandidateContact) { ct.Email = "not-an-email" }},
		{"invalid phone", func(_ *domain.CandidateClient, ct *domain.CandidateContact) { ct.Phone = "call me" }},
		{"invalid website", func(cl *domain.CandidateClient, _ *domain.CandidateContact) { cl.Website = "not a site" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture()
			cl, ct := client, contact
			tt.edit(&cl, &ct)
			preview := &domain.PreviewData{
				Groups:   []domain.CandidateGroup{{Name: "Acme", Row: 2}},
				Clients:  []domain.CandidateClient{cl},
				Contacts: []domain.CandidateContact{ct},
			}

			_, err := f.service().Commit(context.Background(), testActor, preview)

			assert.ErrorIs(t, err, domain.ErrInvalidPreview)
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything, mock.Anything)
		})
	}
}

func TestImportService_Commit_NotifiesActor(t *testing.T) {
	f := newImportFixture()
	f.expectNewAcme()
	f.email.On("SendImportSummary", mock.Anything, testActor.Email, testActor.Name, mock.AnythingOfType("*domain.UploadResult")).Return(nil)
	svc := f.service()

	preview, err := svc.Preview(context.Background(), testActor, csvFile(acmeCSV))
	require.NoError(t, err)
	result, err := svc.Commit(context.Background(), testActor, preview)

	require.NoError(t, err)
	assert.Equal(t, 1, result.GroupsCreated)
	assert.Equal(t, 1, result.ClientsCreated)
	assert.Equal(t, 1, result.ContactsCreated)
	assert.NotEmpty(t, result.ImportID)
	assert.Empty(t, result.ResultsURL)
	f.email.AssertExpectations(t)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestImportService_Import_ArchivesAndSurvivesMailFailure(t *testing.T) {
	f := newImportFixture()
	f.cfg.Archive = true
	f.expectNewAcme()
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.PutObjectInput) bool {
		return in.Bucket == "lawdesk-test" && strings.HasSuffix(in.Key, "/source.csv")
	})).Return(&port.StoredObject{}, nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.PutObjectInput) bool {
		return strings.HasPrefix(in.Key, "imports/") && strings.HasSuffix(in.Key, "/results.xlsx")
	})).Return(&port.StoredObject{}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, "lawdesk-test", mock.AnythingOfType("string"), int64(86400)).
		Return("https://s3.test/results.xlsx", nil)
	f.email.On("SendImportSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("ses down"))

	result, err := f.service().Import(context.Background(), testActor, csvFile(acmeCSV))

	require.NoError(t, err)
	assert.Equal(t, 1, result.ContactsCreated)
	assert.Equal(t, "https://s3.test/results.xlsx", result.ResultsURL)
	f.storage.AssertExpectations(t)
	assert.Contains(t, f.logs.String(), "sending import summary failed", "logged through the service logger")
}

func TestImportService_Import_CarriesPreviewFindings(t *testing.T) {
	f := newImportFixture()
	body := acmeCSV + "Acme,Acme Corp,,John Roe,not-an-email,\n"
	f.expectNewAcme()
	f.email.On("SendImportSummary", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	result, err := f.service().Import(context.Background(), testActor, csvFile(body))

	require.NoError(t, err)
	assert.Equal(t, 1, result.ContactsCreated)
	assert.Equal(t, 1, result.ContactsSkipped)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "email", result.Errors[0].Field)
}

func TestImportService_TooManyImports(t *testing.T) {
	f := newImportFixture()
	f.groups.On("FindByNames", mock.Anything, mock.Anything).Return([]domain.ClientGroup{}, nil)
	f.clients.On("FindByNames", mock.Anything, mock.Anything).Return([]domain.Client{}, nil)

	block := make(chan struct{})
	started := make(chan struct{})
	f.users.On("FindExistingIDs", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-block
		}).Return([]int64{18}, nil)
	svc := f.service()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Preview(context.Background(), testActor, csvFile("Group Name,Client Name,Partner ID\nAcme,Acme Corp,18\n"))
		done <- err
	}()
	<-started

	_, err := svc.Preview(context.Background(), testActor, csvFile(acmeCSV))
	assert.ErrorIs(t, err, domain.ErrTooManyImports)

	close(block)
	assert.NoError(t, <-done)
}

func TestImportService_WriteTemplate(t *testing.T) {
	svc := newImportFixture().service()

	var buf bytes.Buffer
	require.NoError(t, svc.WriteTemplate(&buf, domain.FileTypeCSV))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), spreadsheet.BOM))
	assert.Contains(t, buf.String(), "Group Name,Client Name")

	buf.Reset()
	require.NoError(t, svc.WriteTemplate(&buf, domain.FileTypeXLSX))
	grid, err := spreadsheet.NewCodec().ReadGrid(&buf, "template.xlsx")
	require.NoError(t, err)
	assert.Equal(t, bulkimport.TemplateHeader(), grid[0])

	assert.ErrorIs(t, svc.WriteTemplate(&buf, domain.FileType("pdf")), domain.ErrUnsupportedFileType)
}

func TestImportService_WriteResults(t *testing.T) {
	svc := newImportFixture().service()
	result := &domain.UploadResult{
		GroupsCreated: 1,
		CreatedGroups: []domain.CreatedGroup{{ID: 11, Name: "Acme"}},
	}

	var buf bytes.Buffer
	require.NoError(t, svc.WriteResults(&buf, result))
	grid, err := spreadsheet.NewCodec().ReadGrid(&buf, "results.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Metric", "Count"}, grid[0])
}
