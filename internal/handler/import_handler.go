package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lawdesk/internal/domain"
	"lawdesk/internal/logging"
	"lawdesk/internal/middleware"
	"lawdesk/internal/service"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

// ImportHandler handles the bulk client import endpoints.
type ImportHandler struct {
	importService  service.ImportService
	maxUploadBytes int64
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService service.ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{importService: importService, maxUploadBytes: maxUploadBytes}
}

// Template handles GET /api/v1/imports/template
// @Summary Download the import template
// @Tags imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/csv
// @Param format query string false "xlsx (default) or csv"
// @Security BearerAuth
// @Router /imports/template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	format, ok := sheetFormat(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.importService.WriteTemplate(&buf, format); err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, "client-import-template", format, buf.Bytes())
}

// Preview handles POST /api/v1/imports/preview
// @Summary Preview a client spreadsheet
// @Description Parses and validates the upload without writing anything.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet (xlsx, xlsm or csv)"
// @Failure 400 {object} APIResponse "Unreadable file or missing columns"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 429 {object} APIResponse "Too many imports in progress"
// @Security BearerAuth
// @Router /imports/preview [post]
func (h *ImportHandler) Preview(c *gin.Context) {
	actor, file, ok := h.upload(c)
	if !ok {
		return
	}
	defer closeQuietly(file)

	preview, err := h.importService.Preview(c.Request.Context(), actor, file.ImportFile)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, preview)
}

// ExportPreview handles POST /api/v1/imports/preview/export
// @Summary Download a preview as a corrected spreadsheet
// @Tags imports
// @Accept json
// @Param format query string false "xlsx (default) or csv"
// @Security BearerAuth
// @Router /imports/preview/export [post]
func (h *ImportHandler) ExportPreview(c *gin.Context) {
	format, ok := sheetFormat(c)
	if !ok {
		return
	}
	var preview domain.PreviewData
	if err := c.ShouldBindJSON(&preview); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := h.importService.WritePreview(&buf, &preview, format); err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, "client-import-preview", format, buf.Bytes())
}

// Commit handles POST /api/v1/imports/commit
// @Summary Commit a reviewed preview
// @Description Rejects previews that still carry errors with 422 PREVIEW_HAS_ERRORS.
// @Tags imports
// @Accept json
// @Produce json
// @Param format query string false "json (default) or xlsx"
// @Failure 422 {object} APIResponse "Preview has errors"
// @Security BearerAuth
// @Router /imports/commit [post]
func (h *ImportHandler) Commit(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	asWorkbook, ok := resultFormat(c)
	if !ok {
		return
	}
	var preview domain.PreviewData
	if err := c.ShouldBindJSON(&preview); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.importService.Commit(c.Request.Context(), actor, &preview)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendResult(c, result, asWorkbook)
}

// Import handles POST /api/v1/imports
// @Summary Import a client spreadsheet in one step
// @Description Rows with errors are skipped and reported; everything else is committed.
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet (xlsx, xlsm or csv)"
// @Param format query string false "json (default) or xlsx"
// @Security BearerAuth
// @Router /imports [post]
func (h *ImportHandler) Import(c *gin.Context) {
	asWorkbook, ok := resultFormat(c)
	if !ok {
		return
	}
	actor, file, ok := h.upload(c)
	if !ok {
		return
	}
	defer closeQuietly(file)

	result, err := h.importService.Import(c.Request.Context(), actor, file.ImportFile)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.sendResult(c, result, asWorkbook)
}

// ExportResults handles POST /api/v1/imports/results/export
// @Summary Download an import result as a workbook
// @Tags imports
// @Accept json
// @Security BearerAuth
// @Router /imports/results/export [post]
func (h *ImportHandler) ExportResults(c *gin.Context) {
	var result domain.UploadResult
	if err := c.ShouldBindJSON(&result); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.sendResult(c, &result, true)
}

func (h *ImportHandler) sendResult(c *gin.Context, result *domain.UploadResult, asWorkbook bool) {
	if !asWorkbook {
		RespondOK(c, result)
		return
	}
	var buf bytes.Buffer
	if err := h.importService.WriteResults(&buf, result); err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, "client-import-results", domain.FileTypeXLSX, buf.Bytes())
}

type uploadedFile struct {
	service.ImportFile
	closer func() error
}

func closeQuietly(f *uploadedFile) {
	_ = f.closer()
}

// upload resolves the actor and opens the multipart "file" field. It writes
// the error response itself and reports false when the request cannot go on.
func (h *ImportHandler) upload(c *gin.Context) (domain.Actor, *uploadedFile, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return domain.Actor{}, nil, false
	}

	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes+multipartOverhead {
			HandleError(c, domain.ErrFileTooLarge)
			return domain.Actor{}, nil, false
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrFileTooLarge)
			return domain.Actor{}, nil, false
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return domain.Actor{}, nil, false
	}

	return actor, &uploadedFile{
		ImportFile: service.ImportFile{Name: header.Filename, Size: header.Size, Body: file},
		closer:     file.Close,
	}, true
}

// fail logs rejected uploads at info level and everything else through HandleError.
func (h *ImportHandler) fail(c *gin.Context, err error) {
	if service.IsInputError(err) {
		logging.FromContext(c.Request.Context()).WithError(err).Info("import rejected")
	}
	HandleError(c, err)
}

func sheetFormat(c *gin.Context) (domain.FileType, bool) {
	switch f := c.DefaultQuery("format", string(domain.FileTypeXLSX)); f {
	case string(domain.FileTypeXLSX), string(domain.FileTypeCSV):
		return domain.FileType(f), true
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return "", false
	}
}

// resultFormat reports whether the caller asked for a results workbook
// instead of JSON.
func resultFormat(c *gin.Context) (bool, bool) {
	switch c.DefaultQuery("format", "json") {
	case "json":
		return false, true
	case string(domain.FileTypeXLSX):
		return true, true
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be json or xlsx")
		return false, false
	}
}

func sendFile(c *gin.Context, base string, format domain.FileType, data []byte) {
	name := fmt.Sprintf("%s-%s.%s", base, time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, domain.ContentTypes[format], data)
}
