package repositories

import "context"

// SchemaManager creates storage on first use. Services call it from Initialize.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}
