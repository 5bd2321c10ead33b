package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// PostgresNoteStore implements the store.NoteStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNoteStore creates a new PostgreSQL implementation of the NoteStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNoteStore(db store.DBTX, logger *slog.Logger) *PostgresNoteStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "note_store")),
	}
}

// Ensure PostgresNoteStore implements store.NoteStore interface
var _ store.NoteStore = (*PostgresNoteStore)(nil)

// WithTx implements store.NoteStore.WithTx
func (s *PostgresNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &PostgresNoteStore{db: tx, logger: s.logger}
}

const noteColumns = `id, deck_id, front, back, reading, pos, examples, tags, created_at, updated_at`

// scanNote maps one notes row onto a domain.Note.
func scanNote(row scanner) (*domain.Note, error) {
	var (
		note   domain.Note
		deckID uuid.NullUUID
	)

	err := row.Scan(
		&note.ID,
		&deckID,
		&note.Front,
		&note.Back,
		&note.Reading,
		&note.POS,
		&note.Examples,
		&note.Tags,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deckID.Valid {
		id := deckID.UUID
		note.DeckID = &id
	}
	note.CreatedAt = note.CreatedAt.UTC()
	note.UpdatedAt = note.UpdatedAt.UTC()

	return &note, nil
}

// Create implements store.NoteStore.Create
// Returns store.ErrInvalidEntity if the deck ID doesn't exist (foreign key violation).
func (s *PostgresNoteStore) Create(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during create",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return err
	}

	query := `
		INSERT INTO notes (id, deck_id, front, back, reading, pos, examples, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		note.ID,
		nullUUID(note.DeckID),
		note.Front,
		note.Back,
		note.Reading,
		note.POS,
		note.Examples,
		note.Tags,
		note.CreatedAt,
		note.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during note creation",
				slog.String("error", err.Error()),
				slog.String("note_id", note.ID.String()))
			return fmt.Errorf("%w: deck for note %s not found",
				store.ErrInvalidEntity, note.ID)
		}

		log.Error("failed to create note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	log.Info("note created successfully",
		slog.String("note_id", note.ID.String()))
	return nil
}

// GetByID implements store.NoteStore.GetByID
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	note, err := scanNote(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("note not found", slog.String("note_id", id.String()))
			return nil, store.ErrNoteNotFound
		}
		log.Error("failed to get note by ID",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return nil, MapError(err)
	}

	return note, nil
}

// Update implements store.NoteStore.Update
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) Update(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during update",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return err
	}

	query := `
		UPDATE notes
		SET deck_id = $1, front = $2, back = $3, reading = $4, pos = $5,
		    examples = $6, tags = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		nullUUID(note.DeckID),
		note.Front,
		note.Back,
		note.Reading,
		note.POS,
		note.Examples,
		note.Tags,
		note.UpdatedAt,
		note.ID,
	)

	if err != nil {
		log.Error("failed to update note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "note"); err != nil {
		log.Debug("note not found for update",
			slog.String("note_id", note.ID.String()))
		return store.ErrNoteNotFound
	}

	log.Debug("note updated successfully",
		slog.String("note_id", note.ID.String()))
	return nil
}

// Delete implements store.NoteStore.Delete
// The schema cascades the delete to the note's cards, their review logs and
// their plan rows via ON DELETE CASCADE foreign keys.
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete note",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "note"); err != nil {
		log.Debug("note not found for delete",
			slog.String("note_id", id.String()))
		return store.ErrNoteNotFound
	}

	log.Info("note deleted",
		slog.String("note_id", id.String()))
	return nil
}

// ListUpdatedSince implements store.NoteStore.ListUpdatedSince
func (s *PostgresNoteStore) ListUpdatedSince(ctx context.Context, since time.Time) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + noteColumns + ` FROM notes`
	args := []any{}
	if !since.IsZero() {
		query += ` WHERE updated_at >= $1 OR created_at >= $1`
		args = append(args, since)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query updated notes", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var notes []*domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			log.Error("failed to scan note row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning note rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if notes == nil {
		notes = []*domain.Note{}
	}

	log.Debug("listed updated notes", slog.Int("count", len(notes)))
	return notes, nil
}
