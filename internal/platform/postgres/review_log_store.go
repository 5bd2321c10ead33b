package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{db: tx, logger: s.logger}
}

// Insert implements store.ReviewLogStore.Insert
// Returns store.ErrInvalidEntity if the card ID doesn't exist (foreign key violation).
func (s *PostgresReviewLogStore) Insert(ctx context.Context, entry *domain.ReviewLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("review log validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return err
	}

	query := `
		INSERT INTO review_logs (id, card_id, reviewed_at, rating, latency_ms,
			prev_interval_days, next_interval_days, ease, client_uuid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.CardID,
		entry.ReviewedAt,
		int(entry.Rating),
		entry.LatencyMs,
		entry.PrevIntervalDays,
		entry.NextIntervalDays,
		entry.Ease,
		entry.ClientUUID,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during review log insert",
				slog.String("error", err.Error()),
				slog.String("card_id", entry.CardID.String()))
			return fmt.Errorf("%w: card with ID %s not found",
				store.ErrInvalidEntity, entry.CardID)
		}

		log.Error("failed to insert review log",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return MapError(err)
	}

	log.Debug("review log inserted",
		slog.String("card_id", entry.CardID.String()),
		slog.String("rating", entry.Rating.String()))
	return nil
}

// ExistsByClientUUID implements store.ReviewLogStore.ExistsByClientUUID
func (s *PostgresReviewLogStore) ExistsByClientUUID(ctx context.Context, clientUUID string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM review_logs WHERE client_uuid = $1)`
	if err := s.db.QueryRowContext(ctx, query, clientUUID).Scan(&exists); err != nil {
		log.Error("failed to check review log by client uuid",
			slog.String("error", err.Error()))
		return false, MapError(err)
	}

	return exists, nil
}

// ExistsByKey implements store.ReviewLogStore.ExistsByKey
func (s *PostgresReviewLogStore) ExistsByKey(ctx context.Context, cardID uuid.UUID, reviewedAt time.Time, rating domain.Rating) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM review_logs
			WHERE card_id = $1 AND reviewed_at = $2 AND rating = $3
		)
	`
	if err := s.db.QueryRowContext(ctx, query, cardID, reviewedAt, int(rating)).Scan(&exists); err != nil {
		log.Error("failed to check review log by key",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return false, MapError(err)
	}

	return exists, nil
}

// ListByCard implements store.ReviewLogStore.ListByCard
func (s *PostgresReviewLogStore) ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, card_id, reviewed_at, rating, latency_ms,
			prev_interval_days, next_interval_days, ease, client_uuid
		FROM review_logs
		WHERE card_id = $1
		ORDER BY reviewed_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, cardID, limit)
	if err != nil {
		log.Error("failed to query review logs",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.ReviewLogEntry
	for rows.Next() {
		var (
			entry      domain.ReviewLogEntry
			rating     int
			latencyMs  sql.NullInt64
			clientUUID sql.NullString
		)

		err := rows.Scan(
			&entry.ID,
			&entry.CardID,
			&entry.ReviewedAt,
			&rating,
			&latencyMs,
			&entry.PrevIntervalDays,
			&entry.NextIntervalDays,
			&entry.Ease,
			&clientUUID,
		)
		if err != nil {
			log.Error("failed to scan review log row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		entry.Rating = domain.Rating(rating)
		entry.ReviewedAt = entry.ReviewedAt.UTC()
		if latencyMs.Valid {
			v := latencyMs.Int64
			entry.LatencyMs = &v
		}
		if clientUUID.Valid {
			v := clientUUID.String
			entry.ClientUUID = &v
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning review log rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if entries == nil {
		entries = []*domain.ReviewLogEntry{}
	}

	return entries, nil
}
