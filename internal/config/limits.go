package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxDocumentTitleLength = 255

	// MaxFolderNameLength is the maximum length for folder names.
	// Same as document titles for consistency.
	MaxFolderNameLength = 255

	// MaxSignatureLabelLength is the maximum length for signature labels.
	MaxSignatureLabelLength = 100

	// MaxSignatureImageBytes bounds a single uploaded signature image.
	MaxSignatureImageBytes = 2 << 20

	// InitialThumbnailBatch is how many thumbnails a load decrypts up front.
	// The rest are loaded on demand as cards become visible.
	InitialThumbnailBatch = 12

	// DefaultSessionIdleMinutes is how long an unused session is kept.
	DefaultSessionIdleMinutes = 30

	// ClipboardAutoClearSeconds is how long sensitive text stays on the clipboard.
	ClipboardAutoClearSeconds = 60
)

// DevUserID owns every request in dev when no JWKS endpoint is configured.
// The seed tool writes its sample data for this user.
const DevUserID = "00000000-0000-0000-0000-000000000001"
