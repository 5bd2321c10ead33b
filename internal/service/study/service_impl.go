package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/config"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/domain/srs"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	txRunner   store.TxRunner
	cards      store.CardStore
	notes      store.NoteStore
	plans      store.PlanStore
	logs       store.ReviewLogStore
	srsService srs.Service
	cfg        config.SchedulerConfig
	loc        *time.Location
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	showingID  uuid.UUID
	shownAt    time.Time
	planDriven bool
	batchLeft  int
}

// NewStudyService creates a new StudyService implementation. When
// planDriven is true the session draws cards from today's plan by default
// instead of straight from the due/new pool.
func NewStudyService(
	txRunner store.TxRunner,
	cards store.CardStore,
	notes store.NoteStore,
	plans store.PlanStore,
	logs store.ReviewLogStore,
	srsService srs.Service,
	cfg config.SchedulerConfig,
	loc *time.Location,
	planDriven bool,
	logger *slog.Logger,
) StudyService {
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if notes == nil {
		panic("notes cannot be nil")
	}
	if plans == nil {
		panic("plans cannot be nil")
	}
	if logs == nil {
		panic("logs cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		txRunner:   txRunner,
		cards:      cards,
		notes:      notes,
		plans:      plans,
		logs:       logs,
		srsService: srsService,
		cfg:        cfg,
		loc:        loc,
		planDriven: planDriven,
		logger:     logger.With(slog.String("component", "study_service")),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NextCard implements StudyService.NextCard.
func (s *studyServiceImpl) NextCard(ctx context.Context) (*CardView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	today := domain.PlanDateOf(now, s.loc)

	var (
		card *domain.Card
		item *domain.PlanItem
		err  error
	)

	if s.batchLeft > 0 || s.planDriven {
		card, item, err = s.nextFromPlan(ctx, today)
		if errors.Is(err, ErrNothingToStudy) && s.allowPoolFallback() {
			card, err = s.nextFromPool(ctx, now)
		}
	} else {
		card, err = s.nextFromPool(ctx, now)
	}
	if err != nil {
		if errors.Is(err, ErrNothingToStudy) {
			log.Debug("nothing to study")
			return nil, ErrNothingToStudy
		}
		log.Error("failed to pick next card", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to pick next card: %w", err)
	}

	note, err := s.notes.GetByID(ctx, card.NoteID)
	if err != nil {
		log.Error("failed to load note for card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return nil, fmt.Errorf("failed to load note for card: %w", err)
	}

	s.showingID = card.ID
	s.shownAt = now

	view := &CardView{
		CardID:  card.ID,
		NoteID:  note.ID,
		Front:   note.Front,
		Back:    note.Back,
		Reading: note.Reading,
		Status:  card.Status,
		DueAt:   card.DueAt,
	}
	if item != nil {
		kind := item.Kind
		view.FromPlan = true
		view.Kind = &kind
	}

	log.Debug("card showing",
		slog.String("card_id", card.ID.String()),
		slog.Bool("from_plan", item != nil))
	return view, nil
}

// allowPoolFallback reports whether an exhausted plan may fall back to the
// due/new pool.
func (s *studyServiceImpl) allowPoolFallback() bool {
	if s.batchLeft > 0 {
		return s.cfg.PoolFallback
	}
	return true
}

// nextFromPlan walks today's pending plan items in order, skipping items
// whose card has been deleted or suspended since the plan was built.
func (s *studyServiceImpl) nextFromPlan(
	ctx context.Context,
	today time.Time,
) (*domain.Card, *domain.PlanItem, error) {
	for {
		item, err := s.plans.NextPending(ctx, today)
		if err != nil {
			if errors.Is(err, store.ErrPlanItemNotFound) {
				return nil, nil, ErrNothingToStudy
			}
			return nil, nil, fmt.Errorf("failed to get next plan item: %w", err)
		}

		card, err := s.cards.GetByID(ctx, item.CardID)
		if err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				if markErr := s.plans.UpdateItemStatus(
					ctx, today, item.CardID, domain.PlanStatusSkipped); markErr != nil {
					return nil, nil, fmt.Errorf("failed to skip stale plan item: %w", markErr)
				}
				continue
			}
			return nil, nil, fmt.Errorf("failed to load planned card: %w", err)
		}

		if card.Status == domain.CardStatusSuspended {
			if markErr := s.plans.UpdateItemStatus(
				ctx, today, item.CardID, domain.PlanStatusSkipped); markErr != nil {
				return nil, nil, fmt.Errorf("failed to skip suspended plan item: %w", markErr)
			}
			continue
		}

		return card, item, nil
	}
}

// nextFromPool draws the earliest due card, falling back to the lowest-ID
// new card.
func (s *studyServiceImpl) nextFromPool(ctx context.Context, now time.Time) (*domain.Card, error) {
	card, err := s.cards.FindNextDueOrNew(ctx, now)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrNothingToStudy
		}
		return nil, fmt.Errorf("failed to find next card: %w", err)
	}
	return card, nil
}

// Rate implements StudyService.Rate.
func (s *studyServiceImpl) Rate(ctx context.Context, rating domain.Rating) (*RateOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.IsValid() {
		return nil, ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.showingID == uuid.Nil {
		return nil, ErrNothingShowing
	}

	cardID := s.showingID
	now := s.now()
	today := domain.PlanDateOf(now, s.loc)

	latency := now.Sub(s.shownAt).Milliseconds()
	if latency < 0 {
		latency = 0
	}

	var outcome *RateOutcome
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		plans := s.plans.WithTx(tx)
		logs := s.logs.WithTx(tx)

		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				return ErrNothingShowing
			}
			return fmt.Errorf("failed to load card: %w", err)
		}

		priorInterval := 0.0
		if card.IntervalDays != nil {
			priorInterval = *card.IntervalDays
		}

		updated, result, err := s.srsService.Apply(card, rating, now)
		if err != nil {
			return fmt.Errorf("failed to schedule card: %w", err)
		}

		if err := cards.UpdateSchedule(ctx, updated); err != nil {
			return fmt.Errorf("failed to persist schedule: %w", err)
		}

		entry, err := domain.NewReviewLogEntry(card.ID, rating, now)
		if err != nil {
			return fmt.Errorf("failed to build review log entry: %w", err)
		}
		entry.LatencyMs = &latency
		entry.PrevIntervalDays = priorInterval
		entry.NextIntervalDays = result.IntervalDays
		entry.Ease = result.Ease

		if err := logs.Insert(ctx, entry); err != nil {
			return fmt.Errorf("failed to append review log: %w", err)
		}

		// The plan row is optional: pool-drawn cards have none.
		if err := plans.UpdateItemStatus(ctx, today, card.ID, domain.PlanStatusDone); err != nil &&
			!errors.Is(err, store.ErrPlanItemNotFound) {
			return fmt.Errorf("failed to mark plan item done: %w", err)
		}

		outcome = &RateOutcome{
			CardID:       card.ID,
			Rating:       rating,
			IntervalDays: result.IntervalDays,
			Ease:         result.Ease,
			DueAt:        *updated.DueAt,
			IsLapse:      result.IsLapse,
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrNothingShowing) {
			s.clearShowingLocked()
			return nil, ErrNothingShowing
		}
		log.Error("failed to rate card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("rating", rating.String()))
		return nil, fmt.Errorf("failed to rate card: %w", err)
	}

	s.clearShowingLocked()

	log.Debug("card rated",
		slog.String("card_id", cardID.String()),
		slog.String("rating", rating.String()),
		slog.Float64("interval_days", outcome.IntervalDays),
		slog.Float64("ease", outcome.Ease),
		slog.Bool("lapse", outcome.IsLapse))
	return outcome, nil
}

// Skip implements StudyService.Skip.
func (s *studyServiceImpl) Skip(ctx context.Context, markSkipped bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.showingID == uuid.Nil {
		return ErrNothingShowing
	}

	cardID := s.showingID
	if markSkipped {
		today := domain.PlanDateOf(s.now(), s.loc)
		if err := s.plans.UpdateItemStatus(
			ctx, today, cardID, domain.PlanStatusSkipped); err != nil &&
			!errors.Is(err, store.ErrPlanItemNotFound) {
			log.Error("failed to mark plan item skipped",
				slog.String("error", err.Error()),
				slog.String("card_id", cardID.String()))
			return fmt.Errorf("failed to mark plan item skipped: %w", err)
		}
	}

	s.clearShowingLocked()

	log.Debug("card skipped",
		slog.String("card_id", cardID.String()),
		slog.Bool("marked", markSkipped))
	return nil
}

// clearShowingLocked empties the showing slot and consumes one batch slot.
// Callers must hold s.mu.
func (s *studyServiceImpl) clearShowingLocked() {
	s.showingID = uuid.Nil
	s.shownAt = time.Time{}
	if s.batchLeft > 0 {
		s.batchLeft--
	}
}

// StartBatch implements StudyService.StartBatch.
func (s *studyServiceImpl) StartBatch(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	s.batchLeft = n
}

// RemainingInBatch implements StudyService.RemainingInBatch.
func (s *studyServiceImpl) RemainingInBatch() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchLeft
}
