package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/service/planner"
	"github.com/kioku-srs/kioku-api/internal/service/study"
	"github.com/kioku-srs/kioku-api/internal/service/syncer"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// stubStudyService records calls and returns canned results.
type stubStudyService struct {
	nextView *study.CardView
	nextErr  error

	rateOutcome *study.RateOutcome
	rateErr     error
	gotRating   domain.Rating

	skipErr        error
	gotMarkSkipped bool

	gotBatchSize int
	remaining    int
}

var _ study.StudyService = (*stubStudyService)(nil)

func (s *stubStudyService) NextCard(ctx context.Context) (*study.CardView, error) {
	return s.nextView, s.nextErr
}

func (s *stubStudyService) Rate(ctx context.Context, rating domain.Rating) (*study.RateOutcome, error) {
	s.gotRating = rating
	return s.rateOutcome, s.rateErr
}

func (s *stubStudyService) Skip(ctx context.Context, markSkipped bool) error {
	s.gotMarkSkipped = markSkipped
	return s.skipErr
}

func (s *stubStudyService) StartBatch(n int) {
	s.gotBatchSize = n
	s.remaining = n
}

func (s *stubStudyService) RemainingInBatch() int {
	return s.remaining
}

// stubPlanService records calls and returns canned results.
type stubPlanService struct {
	counts    domain.PlanCounts
	countsErr error

	gotDeckID *uuid.UUID
	buildErr  error

	gotChallengeSize int
	added            int
	challengeErr     error

	rolled  int64
	cleared int64
}

var _ planner.PlanService = (*stubPlanService)(nil)

func (s *stubPlanService) BuildToday(ctx context.Context, deckID *uuid.UUID) (domain.PlanCounts, error) {
	s.gotDeckID = deckID
	return s.counts, s.buildErr
}

func (s *stubPlanService) AppendChallengeBatch(ctx context.Context, size int) (int, error) {
	s.gotChallengeSize = size
	return s.added, s.challengeErr
}

func (s *stubPlanService) NextFromPlan(ctx context.Context) (*domain.PlanItem, error) {
	return nil, planner.ErrPlanExhausted
}

func (s *stubPlanService) MarkDone(ctx context.Context, cardID uuid.UUID) error {
	return nil
}

func (s *stubPlanService) MarkSkipped(ctx context.Context, cardID uuid.UUID) error {
	return nil
}

func (s *stubPlanService) RollRemainingToday(ctx context.Context) (int64, error) {
	return s.rolled, nil
}

func (s *stubPlanService) ClearChallengeToday(ctx context.Context) (int64, error) {
	return s.cleared, nil
}

func (s *stubPlanService) Counts(ctx context.Context) (domain.PlanCounts, error) {
	return s.counts, s.countsErr
}

func (s *stubPlanService) Today() time.Time {
	return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
}

// stubSyncService records calls and returns canned results.
type stubSyncService struct {
	pullResult *syncer.PullResult
	pullErr    error
	gotSince   time.Time

	reviewResult *syncer.ReviewPushResult
	gotReviews   []syncer.ReviewPush

	noteResult *syncer.NotePushResult
	gotEdits   []syncer.NoteEdit
}

var _ syncer.SyncService = (*stubSyncService)(nil)

func (s *stubSyncService) Pull(ctx context.Context, since time.Time) (*syncer.PullResult, error) {
	s.gotSince = since
	return s.pullResult, s.pullErr
}

func (s *stubSyncService) PushReviews(
	ctx context.Context, records []syncer.ReviewPush,
) (*syncer.ReviewPushResult, error) {
	s.gotReviews = records
	return s.reviewResult, nil
}

func (s *stubSyncService) PushNotes(
	ctx context.Context, edits []syncer.NoteEdit,
) (*syncer.NotePushResult, error) {
	s.gotEdits = edits
	return s.noteResult, nil
}

// stubCardStore serves GetByID only. The embedded nil interface panics
// on anything else.
type stubCardStore struct {
	store.CardStore
	card *domain.Card
	err  error
}

func (s *stubCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.card, s.err
}

// stubReviewLogStore serves ListByCard only.
type stubReviewLogStore struct {
	store.ReviewLogStore
	entries  []*domain.ReviewLogEntry
	gotLimit int
}

func (s *stubReviewLogStore) ListByCard(
	ctx context.Context, cardID uuid.UUID, limit int,
) ([]*domain.ReviewLogEntry, error) {
	s.gotLimit = limit
	return s.entries, nil
}
