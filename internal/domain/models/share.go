package models

// ShareFormat selects how documents are packaged for sharing.
type ShareFormat string

const (
	// ShareFormatOriginal shares each document file as-is.
	ShareFormatOriginal ShareFormat = "original"
	// ShareFormatZip packs every document into a single archive.
	ShareFormatZip ShareFormat = "zip"
	// ShareFormatPDF merges PDF documents into one file.
	ShareFormatPDF ShareFormat = "pdf"
)

// ShareResult lists the temporary files prepared for a share sheet. The
// caller hands them back to CleanupTempFiles once the share completes.
type ShareResult struct {
	TempFilePaths []string `json:"temp_file_paths"`
	SharedCount   int      `json:"shared_count"`
}

// ExportStatus is the outcome of an export.
type ExportStatus int

const (
	ExportSucceeded ExportStatus = iota
	ExportPartial
	ExportFailed
)

// ExportResult describes an export to a destination directory.
type ExportResult struct {
	Status        ExportStatus `json:"status"`
	ExportedCount int          `json:"exported_count"`
	ExportedPaths []string     `json:"exported_paths,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
}

func (r ExportResult) IsSuccess() bool { return r.Status == ExportSucceeded }
func (r ExportResult) IsFailed() bool  { return r.Status == ExportFailed }
