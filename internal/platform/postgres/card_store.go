package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}

const cardColumns = `id, note_id, due_at, interval_days, ease, reps, lapses, status, last_review_at`

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanCard maps one cards row onto a domain.Card, converting the nullable
// schedule columns.
func scanCard(row scanner) (*domain.Card, error) {
	var (
		card         domain.Card
		dueAt        sql.NullTime
		intervalDays sql.NullFloat64
		lastReviewAt sql.NullTime
		status       int
	)

	err := row.Scan(
		&card.ID,
		&card.NoteID,
		&dueAt,
		&intervalDays,
		&card.Ease,
		&card.Reps,
		&card.Lapses,
		&status,
		&lastReviewAt,
	)
	if err != nil {
		return nil, err
	}

	if dueAt.Valid {
		t := dueAt.Time.UTC()
		card.DueAt = &t
	}
	if intervalDays.Valid {
		v := intervalDays.Float64
		card.IntervalDays = &v
	}
	if lastReviewAt.Valid {
		t := lastReviewAt.Time.UTC()
		card.LastReviewAt = &t
	}
	card.Status = domain.CardStatus(status)

	return &card, nil
}

// nullUUID converts an optional UUID into its SQL representation.
func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// Create implements store.CardStore.Create
// It saves a new card to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the note ID doesn't exist (foreign key violation).
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO cards (id, note_id, due_at, interval_days, ease, reps, lapses, status, last_review_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.NoteID,
		card.DueAt,
		card.IntervalDays,
		card.Ease,
		card.Reps,
		card.Lapses,
		int(card.Status),
		card.LastReviewAt,
	)

	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()),
			slog.String("note_id", card.NoteID.String()))
		return MapError(err)
	}

	log.Debug("card created successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("note_id", card.NoteID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// FindNextDueOrNew implements store.CardStore.FindNextDueOrNew
// It prefers the earliest due card and falls back to the lowest-ID new card.
// Returns store.ErrCardNotFound if no card qualifies.
func (s *PostgresCardStore) FindNextDueOrNew(ctx context.Context, now time.Time) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dueQuery := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE status <> $1 AND due_at IS NOT NULL AND due_at <= $2
		ORDER BY due_at ASC
		LIMIT 1
	`

	card, err := scanCard(s.db.QueryRowContext(ctx, dueQuery, int(domain.CardStatusSuspended), now))
	if err == nil {
		return card, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to find next due card", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	newQuery := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE status <> $1 AND (due_at IS NULL OR status = $2)
		ORDER BY id ASC
		LIMIT 1
	`

	card, err = scanCard(s.db.QueryRowContext(ctx, newQuery, int(domain.CardStatusSuspended), int(domain.CardStatusNew)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no due or new card available")
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to find next new card", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return card, nil
}

// queryCardRefs runs a query expected to return (card id, deck id) pairs.
func (s *PostgresCardStore) queryCardRefs(ctx context.Context, log *slog.Logger, query string, args ...any) ([]store.CardRef, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query card refs", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var refs []store.CardRef
	for rows.Next() {
		var (
			ref    store.CardRef
			deckID uuid.NullUUID
		)
		if err := rows.Scan(&ref.ID, &deckID); err != nil {
			log.Error("failed to scan card ref row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		if deckID.Valid {
			id := deckID.UUID
			ref.DeckID = &id
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning card ref rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return refs, nil
}

// FindDueCards implements store.CardStore.FindDueCards
func (s *PostgresCardStore) FindDueCards(ctx context.Context, now time.Time, deckID *uuid.UUID, limit int) ([]store.CardRef, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, n.deck_id
		FROM cards c
		JOIN notes n ON n.id = c.note_id
		WHERE c.status <> $1
		  AND c.due_at IS NOT NULL AND c.due_at <= $2
		  AND ($3::uuid IS NULL OR n.deck_id = $3)
		ORDER BY c.due_at ASC
		LIMIT $4
	`

	return s.queryCardRefs(ctx, log, query,
		int(domain.CardStatusSuspended), now, nullUUID(deckID), limit)
}

// FindNewCards implements store.CardStore.FindNewCards
func (s *PostgresCardStore) FindNewCards(ctx context.Context, deckID *uuid.UUID, limit int) ([]store.CardRef, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, n.deck_id
		FROM cards c
		JOIN notes n ON n.id = c.note_id
		WHERE c.status <> $1
		  AND (c.due_at IS NULL OR c.status = $2)
		  AND ($3::uuid IS NULL OR n.deck_id = $3)
		ORDER BY c.id ASC
		LIMIT $4
	`

	return s.queryCardRefs(ctx, log, query,
		int(domain.CardStatusSuspended), int(domain.CardStatusNew), nullUUID(deckID), limit)
}

// FindLeechCards implements store.CardStore.FindLeechCards
func (s *PostgresCardStore) FindLeechCards(ctx context.Context, lapseThreshold int, easeFloor float64, deckID *uuid.UUID, limit int) ([]store.CardRef, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, n.deck_id
		FROM cards c
		JOIN notes n ON n.id = c.note_id
		WHERE c.status <> $1
		  AND (c.lapses >= $2 OR c.ease <= $3)
		  AND ($4::uuid IS NULL OR n.deck_id = $4)
		ORDER BY c.lapses DESC
		LIMIT $5
	`

	return s.queryCardRefs(ctx, log, query,
		int(domain.CardStatusSuspended), lapseThreshold, easeFloor, nullUUID(deckID), limit)
}

// UpdateSchedule implements store.CardStore.UpdateSchedule
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) UpdateSchedule(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during schedule update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE cards
		SET due_at = $1, interval_days = $2, ease = $3, reps = $4, lapses = $5,
		    status = $6, last_review_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		card.DueAt,
		card.IntervalDays,
		card.Ease,
		card.Reps,
		card.Lapses,
		int(card.Status),
		card.LastReviewAt,
		card.ID,
	)

	if err != nil {
		log.Error("failed to update card schedule",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "card"); err != nil {
		log.Debug("card not found for schedule update",
			slog.String("card_id", card.ID.String()))
		return store.ErrCardNotFound
	}

	log.Debug("card schedule updated",
		slog.String("card_id", card.ID.String()),
		slog.Float64("ease", card.Ease),
		slog.Int("reps", card.Reps))
	return nil
}

// ListChangedSince implements store.CardStore.ListChangedSince
func (s *PostgresCardStore) ListChangedSince(ctx context.Context, since time.Time) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards`
	args := []any{}
	if !since.IsZero() {
		query += `
		WHERE (last_review_at IS NOT NULL AND last_review_at >= $1)
		   OR (due_at IS NOT NULL AND due_at >= $1)`
		args = append(args, since)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query changed cards", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning card rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if cards == nil {
		cards = []*domain.Card{}
	}

	log.Debug("listed changed cards", slog.Int("count", len(cards)))
	return cards, nil
}
