package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"lawdesk/internal/bulkimport"
	"lawdesk/internal/config"
	"lawdesk/internal/domain"
	"lawdesk/internal/logging"
	"lawdesk/internal/port"
	"lawdesk/internal/spreadsheet"
)

// resultsURLExpiry is how long a presigned results link stays valid, in seconds.
const resultsURLExpiry = 24 * 60 * 60

// ImportFile is an uploaded spreadsheet.
type ImportFile struct {
	Name string
	// Size is the declared size; zero when unknown.
	Size int64
	Body io.Reader
}

// ImportService defines the bulk client import contract.
type ImportService interface {
	Preview(ctx context.Context, actor domain.Actor, file ImportFile) (*domain.PreviewData, error)
	Commit(ctx context.Context, actor domain.Actor, preview *domain.PreviewData) (*domain.UploadResult, error)
	// Import parses, previews and commits in one step. Blocked clients and
	// contacts are skipped and the preview findings are carried into the result.
	Import(ctx context.Context, actor domain.Actor, file ImportFile) (*domain.UploadResult, error)
	WriteTemplate(w io.Writer, format domain.FileType) error
	WritePreview(w io.Writer, preview *domain.PreviewData, format domain.FileType) error
	WriteResults(w io.Writer, result *domain.UploadResult) error
}

// ImportDeps collects the collaborators of the import service. Storage and
// Email are optional.
type ImportDeps struct {
	Codec     port.WorkbookCodec
	Parser    *bulkimport.Parser
	Builder   *bulkimport.PreviewBuilder
	Committer *bulkimport.Committer
	Storage   port.ObjectStorage
	Email     port.EmailSender
	Bucket    string
	Config    config.ImportConfig
	Log       *logrus.Entry
}

type importService struct {
	deps     ImportDeps
	sem      *semaphore.Weighted
	validate *validator.Validate
}

// NewImportService creates a new ImportService implementation.
func NewImportService(deps ImportDeps) ImportService {
	limit := deps.Config.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	if deps.Log == nil {
		deps.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &importService{
		deps:     deps,
		sem:      semaphore.NewWeighted(int64(limit)),
		validate: bulkimport.NewSubmissionValidator(),
	}
}

func (s *importService) Preview(ctx context.Context, actor domain.Actor, file ImportFile) (*domain.PreviewData, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	_, preview, err := s.preview(ctx, actor, file)
	return preview, err
}

func (s *importService) Commit(ctx context.Context, actor domain.Actor, preview *domain.PreviewData) (*domain.UploadResult, error) {
	if preview == nil {
		return nil, domain.ErrInvalidPreview
	}
	if preview.HasErrors() {
		return nil, domain.ErrPreviewHasErrors
	}
	if err := s.validate.Struct(preview); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPreview, err)
	}
	if err := bulkimport.CheckReferences(preview); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPreview, err)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.deps.Committer.Commit(ctx, preview, actor)
	if err != nil {
		return nil, fmt.Errorf("importService.Commit: %w", err)
	}

	source, err := json.Marshal(preview)
	if err != nil {
		return nil, fmt.Errorf("importService.Commit: encoding preview: %w", err)
	}
	s.finish(ctx, actor, result, archivedFile{name: "preview.json", contentType: "application/json", data: source})
	return result, nil
}

func (s *importService) Import(ctx context.Context, actor domain.Actor, file ImportFile) (*domain.UploadResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	data, preview, err := s.preview(ctx, actor, file)
	if err != nil {
		return nil, err
	}

	result, err := s.deps.Committer.Commit(ctx, preview, actor)
	if err != nil {
		return nil, fmt.Errorf("importService.Import: %w", err)
	}
	result.Errors = append(append([]domain.ValidationError{}, preview.Errors...), result.Errors...)
	result.Warnings = append(append([]domain.Warning{}, preview.Warnings...), result.Warnings...)

	ext := strings.ToLower(filepath.Ext(file.Name))
	fileType, _ := spreadsheet.FileTypeOf(file.Name)
	s.finish(ctx, actor, result, archivedFile{
		name:        "source" + ext,
		contentType: domain.ContentTypes[fileType],
		data:        data,
	})
	return result, nil
}

func (s *importService) WriteTemplate(w io.Writer, format domain.FileType) error {
	return s.writeSheet(w, bulkimport.TemplateSheet(), format)
}

func (s *importService) WritePreview(w io.Writer, preview *domain.PreviewData, format domain.FileType) error {
	if preview == nil {
		return domain.ErrInvalidPreview
	}
	return s.writeSheet(w, bulkimport.PreviewSheet(preview), format)
}

func (s *importService) WriteResults(w io.Writer, result *domain.UploadResult) error {
	if err := s.deps.Codec.WriteWorkbook(w, bulkimport.ResultSheets(result)); err != nil {
		return fmt.Errorf("importService.WriteResults: %w", err)
	}
	return nil
}

func (s *importService) writeSheet(w io.Writer, sheet port.Sheet, format domain.FileType) error {
	var err error
	switch format {
	case domain.FileTypeXLSX:
		err = s.deps.Codec.WriteWorkbook(w, []port.Sheet{sheet})
	case domain.FileTypeCSV:
		err = s.deps.Codec.WriteCSV(w, sheet)
	default:
		return domain.ErrUnsupportedFileType
	}
	if err != nil {
		return fmt.Errorf("importService.writeSheet: %w", err)
	}
	return nil
}

// preview reads file and builds its preview. The raw bytes are returned for
// archiving.
func (s *importService) preview(ctx context.Context, actor domain.Actor, file ImportFile) ([]byte, *domain.PreviewData, error) {
	if _, err := spreadsheet.FileTypeOf(file.Name); err != nil {
		return nil, nil, err
	}
	data, err := s.readLimited(file)
	if err != nil {
		return nil, nil, err
	}

	grid, err := s.deps.Codec.ReadGrid(bytes.NewReader(data), file.Name)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.deps.Parser.Parse(grid)
	if err != nil {
		return nil, nil, err
	}
	preview, err := s.deps.Builder.Build(ctx, rows, actor)
	if err != nil {
		return nil, nil, fmt.Errorf("importService.preview: %w", err)
	}
	return data, preview, nil
}

func (s *importService) readLimited(file ImportFile) ([]byte, error) {
	limit := s.deps.Config.MaxFileSizeBytes()
	if limit > 0 && file.Size > limit {
		return nil, domain.ErrFileTooLarge
	}
	r := file.Body
	if limit > 0 {
		r = io.LimitReader(file.Body, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("importService.readLimited: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

// acquire takes an import slot, waiting at most the configured acquire timeout.
func (s *importService) acquire(ctx context.Context) (func(), error) {
	waitCtx := ctx
	if timeout := s.deps.Config.AcquireTimeout; timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrTooManyImports
	}
	return func() { s.sem.Release(1) }, nil
}

type archivedFile struct {
	name        string
	contentType string
	data        []byte
}

// finish archives the import and mails the summary. Failures here never fail
// the import; the data is already committed.
func (s *importService) finish(ctx context.Context, actor domain.Actor, result *domain.UploadResult, source archivedFile) {
	log := logging.FromContextOr(ctx, s.deps.Log).WithFields(logrus.Fields{
		"import_id": result.ImportID,
		"user_id":   actor.UserID,
	})

	if s.deps.Config.Archive && s.deps.Storage != nil {
		if err := s.archive(ctx, result, source); err != nil {
			log.WithError(err).Warn("importService: archiving import failed")
		}
	}

	if s.deps.Email != nil && actor.Email != "" {
		if err := s.deps.Email.SendImportSummary(ctx, actor.Email, actor.Name, result); err != nil {
			log.WithError(err).Warn("importService: sending import summary failed")
		}
	}
}

func (s *importService) archive(ctx context.Context, result *domain.UploadResult, source archivedFile) error {
	prefix := fmt.Sprintf("imports/%s/", result.ImportID)

	if _, err := s.deps.Storage.Upload(ctx, port.PutObjectInput{
		Bucket:      s.deps.Bucket,
		Key:         prefix + source.name,
		Body:        bytes.NewReader(source.data),
		ContentType: source.contentType,
		Size:        int64(len(source.data)),
	}); err != nil {
		return fmt.Errorf("uploading source: %w", err)
	}

	var buf bytes.Buffer
	if err := s.WriteResults(&buf, result); err != nil {
		return err
	}
	resultsKey := prefix + "results.xlsx"
	if _, err := s.deps.Storage.Upload(ctx, port.PutObjectInput{
		Bucket:      s.deps.Bucket,
		Key:         resultsKey,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: domain.ContentTypes[domain.FileTypeXLSX],
		Size:        int64(buf.Len()),
	}); err != nil {
		return fmt.Errorf("uploading results: %w", err)
	}

	url, err := s.deps.Storage.GetPresignedURL(ctx, s.deps.Bucket, resultsKey, resultsURLExpiry)
	if err != nil {
		return fmt.Errorf("presigning results: %w", err)
	}
	result.ResultsURL = url
	return nil
}

// IsInputError reports whether err was caused by the uploaded file rather
// than by the service.
func IsInputError(err error) bool {
	for _, target := range []error{
		domain.ErrUnsupportedFileType, domain.ErrFileTooLarge, domain.ErrMissingColumns,
		domain.ErrTooManyRows, domain.ErrEmptyWorkbook, domain.ErrUnreadableWorkbook,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
