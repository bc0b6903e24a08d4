package domain

// FileType represents the spreadsheet formats accepted for import.
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"xlsx": FileTypeXLSX,
	"xlsm": FileTypeXLSX,
	"csv":  FileTypeCSV,
}

// ContentTypes maps FileType to the MIME type used for downloads.
var ContentTypes = map[FileType]string{
	FileTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FileTypeCSV:  "text/csv; charset=utf-8",
}

// UserRole defines the role hierarchy within the firm.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RolePartner   UserRole = "partner"
	RoleAssociate UserRole = "associate"
	RoleStaff     UserRole = "staff"
)

// ImportRoles are the roles allowed to run bulk client imports.
var ImportRoles = []UserRole{RoleAdmin, RolePartner}
