package syncer

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

// Verify interface compliance at compile time
var _ SyncService = (*syncServiceImpl)(nil)

// syncServiceImpl implements the SyncService interface.
type syncServiceImpl struct {
	txRunner store.TxRunner
	decks    store.DeckStore
	notes    store.NoteStore
	cards    store.CardStore
	logs     store.ReviewLogStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewSyncService creates a new SyncService implementation.
func NewSyncService(
	txRunner store.TxRunner,
	decks store.DeckStore,
	notes store.NoteStore,
	cards store.CardStore,
	logs store.ReviewLogStore,
	logger *slog.Logger,
) SyncService {
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if decks == nil {
		panic("decks cannot be nil")
	}
	if notes == nil {
		panic("notes cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if logs == nil {
		panic("logs cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &syncServiceImpl{
		txRunner: txRunner,
		decks:    decks,
		notes:    notes,
		cards:    cards,
		logs:     logs,
		logger:   logger.With(slog.String("component", "sync_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Pull implements SyncService.Pull.
func (s *syncServiceImpl) Pull(ctx context.Context, since time.Time) (*PullResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The watermark is taken before reading so a write that lands during
	// the pull is picked up again by the next one.
	watermark := s.now()

	decks, err := s.decks.List(ctx)
	if err != nil {
		log.Error("failed to list decks for pull", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	notes, err := s.notes.ListUpdatedSince(ctx, since)
	if err != nil {
		log.Error("failed to list notes for pull", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	cards, err := s.cards.ListChangedSince(ctx, since)
	if err != nil {
		log.Error("failed to list cards for pull", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	log.Debug("pull computed",
		slog.Time("since", since),
		slog.Int("decks", len(decks)),
		slog.Int("notes", len(notes)),
		slog.Int("cards", len(cards)))

	return &PullResult{
		SyncTimestamp: watermark,
		Decks:         decks,
		Notes:         notes,
		Cards:         cards,
	}, nil
}

// PushReviews implements SyncService.PushReviews.
//
// Records are processed one at a time outside any batch transaction so a
// failing record cannot poison the rest.
func (s *syncServiceImpl) PushReviews(
	ctx context.Context,
	records []ReviewPush,
) (*ReviewPushResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := &ReviewPushResult{}
	for i, rec := range records {
		entry, err := s.buildEntry(rec)
		if err != nil {
			log.Warn("skipping malformed review record",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			result.Skipped++
			continue
		}

		dup, err := s.isDuplicate(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate review: %w", err)
		}
		if dup {
			result.Duplicates++
			continue
		}

		if err := s.logs.Insert(ctx, entry); err != nil {
			// A vanished card or a concurrent push of the same record is
			// that record's problem only.
			if errors.Is(err, store.ErrInvalidEntity) || errors.Is(err, store.ErrDuplicate) {
				log.Warn("skipping unassignable review record",
					slog.Int("index", i),
					slog.String("card_id", entry.CardID.String()),
					slog.String("error", err.Error()))
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to append review record: %w", err)
		}
		result.Processed++
	}

	log.Info("review push reconciled",
		slog.Int("received", len(records)),
		slog.Int("processed", result.Processed),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// buildEntry validates one pushed record and converts it to a log entry.
func (s *syncServiceImpl) buildEntry(rec ReviewPush) (*domain.ReviewLogEntry, error) {
	cardID, err := uuid.Parse(rec.CardID)
	if err != nil {
		return nil, fmt.Errorf("invalid card id %q: %w", rec.CardID, err)
	}

	rating, err := domain.ParseRating(rec.Rating)
	if err != nil {
		return nil, fmt.Errorf("invalid rating %q: %w", rec.Rating, err)
	}

	reviewedAt := rec.ReviewedAt
	if reviewedAt.IsZero() {
		return nil, errors.New("missing review time")
	}

	entry, err := domain.NewReviewLogEntry(cardID, rating, reviewedAt)
	if err != nil {
		return nil, err
	}
	entry.LatencyMs = rec.LatencyMs
	if rec.ClientUUID != nil && *rec.ClientUUID != "" {
		clientUUID := *rec.ClientUUID
		entry.ClientUUID = &clientUUID
	}
	return entry, nil
}

// isDuplicate checks whether the server already holds the record, by the
// client UUID when one is present, otherwise by the record's natural key.
func (s *syncServiceImpl) isDuplicate(
	ctx context.Context,
	entry *domain.ReviewLogEntry,
) (bool, error) {
	if entry.ClientUUID != nil {
		return s.logs.ExistsByClientUUID(ctx, *entry.ClientUUID)
	}
	return s.logs.ExistsByKey(ctx, entry.CardID, entry.ReviewedAt, entry.Rating)
}

// PushNotes implements SyncService.PushNotes.
func (s *syncServiceImpl) PushNotes(
	ctx context.Context,
	edits []NoteEdit,
) (*NotePushResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := &NotePushResult{}
	for i, edit := range edits {
		applied, note, err := s.applyNoteEdit(ctx, edit)
		if err != nil {
			log.Warn("skipping unusable note edit",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			result.Skipped++
			continue
		}
		if !applied {
			// The server's copy is at least as new. Dropped silently.
			continue
		}
		result.Updated++
		result.Notes = append(result.Notes, note)
	}

	log.Info("note push reconciled",
		slog.Int("received", len(edits)),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// applyNoteEdit reconciles a single edit. It reports whether the edit won,
// along with the resulting server state when it did.
func (s *syncServiceImpl) applyNoteEdit(
	ctx context.Context,
	edit NoteEdit,
) (bool, *domain.Note, error) {
	noteID, err := uuid.Parse(edit.ID)
	if err != nil {
		return false, nil, fmt.Errorf("invalid note id %q: %w", edit.ID, err)
	}
	if edit.Front == "" {
		return false, nil, domain.ErrNoteFrontEmpty
	}

	var deckID *uuid.UUID
	if edit.DeckID != nil && *edit.DeckID != "" {
		parsed, err := uuid.Parse(*edit.DeckID)
		if err != nil {
			return false, nil, fmt.Errorf("invalid deck id %q: %w", *edit.DeckID, err)
		}
		deckID = &parsed
	}

	existing, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			note, createErr := s.createFromEdit(ctx, noteID, deckID, edit)
			if createErr != nil {
				return false, nil, createErr
			}
			return true, note, nil
		}
		return false, nil, fmt.Errorf("failed to load note: %w", err)
	}

	// Last writer wins, strictly. A tie keeps the server's copy.
	if !edit.UpdatedAt.After(existing.UpdatedAt) {
		return false, nil, nil
	}

	updated := *existing
	updated.DeckID = deckID
	updated.Front = edit.Front
	updated.Back = edit.Back
	updated.Reading = edit.Reading
	updated.POS = edit.POS
	updated.Examples = edit.Examples
	updated.Tags = edit.Tags
	updated.UpdatedAt = s.now()

	if err := s.notes.Update(ctx, &updated); err != nil {
		return false, nil, fmt.Errorf("failed to update note: %w", err)
	}
	return true, &updated, nil
}

// createFromEdit inserts a note the server has never seen, together with
// its card, in one transaction.
func (s *syncServiceImpl) createFromEdit(
	ctx context.Context,
	noteID uuid.UUID,
	deckID *uuid.UUID,
	edit NoteEdit,
) (*domain.Note, error) {
	now := s.now()
	note := &domain.Note{
		ID:        noteID,
		DeckID:    deckID,
		Front:     edit.Front,
		Back:      edit.Back,
		Reading:   edit.Reading,
		POS:       edit.POS,
		Examples:  edit.Examples,
		Tags:      edit.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := note.Validate(); err != nil {
		return nil, err
	}

	card, err := domain.NewCard(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to build card for note: %w", err)
	}

	err = s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		notes := s.notes.WithTx(tx)
		cards := s.cards.WithTx(tx)

		if err := notes.Create(ctx, note); err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		if err := cards.Create(ctx, card); err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}
