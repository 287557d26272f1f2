package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"scandeck/internal/domain"
	"scandeck/internal/domain/models"
	"scandeck/internal/domain/repositories"
)

const signatureColumns = `id, owner_id, label, is_default, image_path, size_bytes, created_at, updated_at`

// PostgresSignatureRepository implements the SignatureRepository interface
type PostgresSignatureRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
	tx     repositories.TransactionManager
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(config *RepositoryConfig, tx repositories.TransactionManager) repositories.SignatureRepository {
	return &PostgresSignatureRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
		tx:     tx,
	}
}

// Create inserts a signature. The caller assigns ID so the image file can be
// written before the row exists.
func (r *PostgresSignatureRepository) Create(ctx context.Context, sig *models.Signature) error {
	return r.tx.ExecTx(ctx, func(ctx context.Context) error {
		if sig.IsDefault {
			if err := r.clearDefault(ctx, sig.OwnerID); err != nil {
				return err
			}
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (id, owner_id, label, is_default, image_path, size_bytes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`, r.tables.Signatures)

		executor := GetExecutor(ctx, r.pool)
		err := executor.QueryRow(ctx, query,
			sig.ID,
			sig.OwnerID,
			sig.Label,
			sig.IsDefault,
			sig.ImagePath,
			sig.SizeBytes,
			sig.CreatedAt,
			sig.UpdatedAt,
		).Scan(&sig.CreatedAt, &sig.UpdatedAt)
		if err != nil {
			if IsPgDuplicateError(err) {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("signature %s already exists", sig.ID),
					ResourceType: "signature",
					ResourceID:   sig.ID,
				}
			}
			return fmt.Errorf("create signature: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a signature by ID
func (r *PostgresSignatureRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Signature, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, signatureColumns, r.tables.Signatures)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get signature: %w", err)
	}

	sig, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Signature])
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("signature %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan signature: %w", err)
	}
	return &sig, nil
}

// List returns every signature of the owner
func (r *PostgresSignatureRepository) List(ctx context.Context, ownerID string) ([]models.Signature, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, signatureColumns, r.tables.Signatures)

	return r.collect(ctx, "list signatures", query, ownerID)
}

// UpdateLabel renames a signature
func (r *PostgresSignatureRepository) UpdateLabel(ctx context.Context, id, label, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET label = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, r.tables.Signatures)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, label, id, ownerID)
	if err != nil {
		return fmt.Errorf("rename signature: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("signature %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetDefault makes id the only default signature. An empty id clears it.
func (r *PostgresSignatureRepository) SetDefault(ctx context.Context, id, ownerID string) error {
	return r.tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := r.clearDefault(ctx, ownerID); err != nil {
			return err
		}
		if id == "" {
			return nil
		}

		query := fmt.Sprintf(`
			UPDATE %s
			SET is_default = TRUE, updated_at = NOW()
			WHERE id = $1 AND owner_id = $2
		`, r.tables.Signatures)

		executor := GetExecutor(ctx, r.pool)
		result, err := executor.Exec(ctx, query, id, ownerID)
		if err != nil {
			return fmt.Errorf("set default signature: %w", err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("signature %s: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// DeleteMany removes signatures and returns the deleted rows
func (r *PostgresSignatureRepository) DeleteMany(ctx context.Context, ids []string, ownerID string) ([]models.Signature, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1 AND id = ANY($2)
		RETURNING %s
	`, r.tables.Signatures, signatureColumns)

	return r.collect(ctx, "delete signatures", query, ownerID, ids)
}

// DeleteAll removes every signature of the owner
func (r *PostgresSignatureRepository) DeleteAll(ctx context.Context, ownerID string) ([]models.Signature, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1
		RETURNING %s
	`, r.tables.Signatures, signatureColumns)

	return r.collect(ctx, "delete all signatures", query, ownerID)
}

func (r *PostgresSignatureRepository) clearDefault(ctx context.Context, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_default = FALSE, updated_at = NOW()
		WHERE owner_id = $1 AND is_default
	`, r.tables.Signatures)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("clear default signature: %w", err)
	}
	return nil
}

func (r *PostgresSignatureRepository) collect(ctx context.Context, op, query string, args ...interface{}) ([]models.Signature, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sigs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Signature])
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", op, err)
	}
	return sigs, nil
}
