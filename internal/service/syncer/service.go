package syncer

import (
	"context"
	"time"

	"github.com/kioku-srs/kioku-api/internal/domain"
)

// ReviewPush is one client-side review record offered for reconciliation.
// The card ID and rating arrive as raw strings so a malformed record can be
// rejected on its own without failing the rest of the batch.
type ReviewPush struct {
	CardID     string
	Rating     string
	ReviewedAt time.Time
	LatencyMs  *int64
	ClientUUID *string
}

// ReviewPushResult reports what happened to a pushed review batch.
type ReviewPushResult struct {
	// Processed counts the records appended to the review history.
	Processed int
	// Duplicates counts records dropped because the server already has them.
	Duplicates int
	// Skipped counts malformed records rejected by validation.
	Skipped int
}

// NoteEdit is one client-side note state offered for reconciliation.
type NoteEdit struct {
	ID        string
	DeckID    *string
	Front     string
	Back      string
	Reading   string
	POS       string
	Examples  string
	Tags      string
	UpdatedAt time.Time
}

// NotePushResult reports which note edits won reconciliation. Notes holds
// the resulting server state of every applied edit.
type NotePushResult struct {
	Updated int
	Skipped int
	Notes   []*domain.Note
}

// PullResult is a full or incremental snapshot for a syncing client.
// SyncTimestamp is the watermark the client should present on its next
// pull.
type PullResult struct {
	SyncTimestamp time.Time
	Decks         []*domain.Deck
	Notes         []*domain.Note
	Cards         []*domain.Card
}

// SyncService reconciles client state with the server.
//
// Review pushes are append-only: they extend the review history and never
// reschedule cards, which stay authoritative on the device that reviewed
// them until the next pull. Note pushes follow last-writer-wins on the
// note's update time, with ties kept by the server.
type SyncService interface {
	// Pull returns decks plus the notes and cards changed at or after
	// since. A zero since returns everything.
	Pull(ctx context.Context, since time.Time) (*PullResult, error)

	// PushReviews appends client review records to the history. Each
	// record is validated and deduplicated on its own: a malformed record
	// is skipped, a record the server already has is dropped, and neither
	// aborts the rest of the batch. Dedup matches the client UUID when
	// one is present, else the (card, reviewed-at, rating) key.
	PushReviews(ctx context.Context, records []ReviewPush) (*ReviewPushResult, error)

	// PushNotes reconciles client note edits. An edit wins only when its
	// update time is strictly newer than the server's; winners are
	// restamped with the server clock and echoed back, losers are dropped
	// silently. An edit for an unknown note creates the note and its card.
	PushNotes(ctx context.Context, edits []NoteEdit) (*NotePushResult, error)
}
