package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUserInactive        = errors.New("user is inactive")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")

	ErrMissingColumns      = errors.New("required columns not found in header row")
	ErrTooManyRows         = errors.New("spreadsheet exceeds maximum row count")
	ErrEmptyWorkbook       = errors.New("spreadsheet has no header row")
	ErrUnreadableWorkbook  = errors.New("spreadsheet could not be read")
	ErrPreviewHasErrors    = errors.New("preview contains errors and cannot be committed")
	ErrInvalidPreview      = errors.New("preview submission is invalid")
	ErrTooManyImports      = errors.New("too many imports in progress")
	ErrDuplicateGroup      = errors.New("client group name already exists")
	ErrDuplicateClient     = errors.New("client already exists in this group")
	ErrDuplicateClientCode = errors.New("client code already in use")
	ErrDuplicateContact    = errors.New("contact email already exists for this client")
	ErrPrimaryExists       = errors.New("client already has a primary contact")
)
