package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/config"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/domain/srs"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// Verify interface compliance at compile time
var _ PlanService = (*planServiceImpl)(nil)

// planServiceImpl implements the PlanService interface.
type planServiceImpl struct {
	txRunner store.TxRunner
	cards    store.CardStore
	plans    store.PlanStore
	cfg      config.SchedulerConfig
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewPlanService creates a new PlanService implementation.
func NewPlanService(
	txRunner store.TxRunner,
	cards store.CardStore,
	plans store.PlanStore,
	cfg config.SchedulerConfig,
	loc *time.Location,
	logger *slog.Logger,
) PlanService {
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if plans == nil {
		panic("plans cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &planServiceImpl{
		txRunner: txRunner,
		cards:    cards,
		plans:    plans,
		cfg:      cfg,
		loc:      loc,
		logger:   logger.With(slog.String("component", "plan_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Today implements PlanService.Today.
func (s *planServiceImpl) Today() time.Time {
	return domain.PlanDateOf(s.now(), s.loc)
}

// BuildToday implements PlanService.BuildToday.
func (s *planServiceImpl) BuildToday(
	ctx context.Context,
	deckID *uuid.UUID,
) (domain.PlanCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.now()
	today := domain.PlanDateOf(now, s.loc)
	yesterday := today.AddDate(0, 0, -1)

	log.Debug("building daily plan",
		slog.Time("plan_date", today),
		slog.Bool("deck_filtered", deckID != nil))

	var counts domain.PlanCounts
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		plans := s.plans.WithTx(tx)

		orderNo, err := plans.MaxOrderNo(ctx, today)
		if err != nil {
			return fmt.Errorf("failed to read plan order: %w", err)
		}

		// Carry over yesterday's unfinished items first, preserving their
		// kind and relative order, then mark the originals rolled.
		carried, err := plans.ListPending(ctx, yesterday)
		if err != nil {
			return fmt.Errorf("failed to list carry-over items: %w", err)
		}
		for _, prev := range carried {
			orderNo++
			item := &domain.PlanItem{
				PlanDate: today,
				CardID:   prev.CardID,
				DeckID:   prev.DeckID,
				Kind:     prev.Kind,
				Status:   domain.PlanStatusPending,
				OrderNo:  orderNo,
			}
			if _, err := plans.UpsertItem(ctx, item); err != nil {
				return fmt.Errorf("failed to carry over plan item: %w", err)
			}
		}
		if len(carried) > 0 {
			if _, err := plans.MarkAllPending(ctx, yesterday, domain.PlanStatusRolled); err != nil {
				return fmt.Errorf("failed to roll over previous plan: %w", err)
			}
		}

		due, err := cards.FindDueCards(ctx, now, deckID, s.cfg.DueLimit)
		if err != nil {
			return fmt.Errorf("failed to find due cards: %w", err)
		}
		orderNo, err = appendRefs(ctx, plans, today, due, domain.PlanKindDue, orderNo)
		if err != nil {
			return err
		}

		leeches, err := cards.FindLeechCards(
			ctx, s.cfg.LeechThreshold, domain.MinEase+srs.Epsilon, deckID, s.cfg.LeechLimit)
		if err != nil {
			return fmt.Errorf("failed to find leech cards: %w", err)
		}
		orderNo, err = appendRefs(ctx, plans, today, leeches, domain.PlanKindLeech, orderNo)
		if err != nil {
			return err
		}

		fresh, err := cards.FindNewCards(ctx, deckID, s.cfg.NewLimit)
		if err != nil {
			return fmt.Errorf("failed to find new cards: %w", err)
		}
		if _, err = appendRefs(ctx, plans, today, fresh, domain.PlanKindNew, orderNo); err != nil {
			return err
		}

		counts, err = plans.Counts(ctx, today)
		if err != nil {
			return fmt.Errorf("failed to count plan items: %w", err)
		}
		return nil
	})

	if err != nil {
		log.Error("failed to build daily plan",
			slog.String("error", err.Error()),
			slog.Time("plan_date", today))
		return domain.PlanCounts{}, NewBuildError("plan rebuild failed", err)
	}

	log.Info("daily plan built",
		slog.Time("plan_date", today),
		slog.Int("pending", counts.Pending),
		slog.Int("total", counts.Total))
	return counts, nil
}

// appendRefs upserts a run of card references as plan items of one kind,
// returning the highest order number handed out.
func appendRefs(
	ctx context.Context,
	plans store.PlanStore,
	planDate time.Time,
	refs []store.CardRef,
	kind domain.PlanKind,
	orderNo int,
) (int, error) {
	for _, ref := range refs {
		orderNo++
		item := &domain.PlanItem{
			PlanDate: planDate,
			CardID:   ref.ID,
			DeckID:   ref.DeckID,
			Kind:     kind,
			Status:   domain.PlanStatusPending,
			OrderNo:  orderNo,
		}
		if _, err := plans.UpsertItem(ctx, item); err != nil {
			return orderNo, fmt.Errorf("failed to add %s plan item: %w", kind, err)
		}
	}
	return orderNo, nil
}

// AppendChallengeBatch implements PlanService.AppendChallengeBatch.
func (s *planServiceImpl) AppendChallengeBatch(ctx context.Context, size int) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if size <= 0 {
		return 0, ErrInvalidBatchSize
	}

	now := s.now()
	today := domain.PlanDateOf(now, s.loc)

	added := 0
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		plans := s.plans.WithTx(tx)

		orderNo, err := plans.MaxOrderNo(ctx, today)
		if err != nil {
			return fmt.Errorf("failed to read plan order: %w", err)
		}

		counts, err := plans.Counts(ctx, today)
		if err != nil {
			return fmt.Errorf("failed to count plan items: %w", err)
		}

		// Over-fetch by the number of rows already planned so that new
		// cards consumed by the daily plan do not starve the batch.
		refs, err := cards.FindNewCards(ctx, nil, size+counts.Total)
		if err != nil {
			return fmt.Errorf("failed to find new cards: %w", err)
		}

		for _, ref := range refs {
			if added >= size {
				break
			}
			orderNo++
			item := &domain.PlanItem{
				PlanDate: today,
				CardID:   ref.ID,
				DeckID:   ref.DeckID,
				Kind:     domain.PlanKindChallenge,
				Status:   domain.PlanStatusPending,
				OrderNo:  orderNo,
			}
			inserted, err := plans.UpsertItem(ctx, item)
			if err != nil {
				return fmt.Errorf("failed to add challenge item: %w", err)
			}
			if inserted {
				added++
			}
		}
		return nil
	})

	if err != nil {
		log.Error("failed to append challenge batch",
			slog.String("error", err.Error()),
			slog.Int("size", size))
		return 0, fmt.Errorf("failed to append challenge batch: %w", err)
	}

	log.Info("challenge batch appended",
		slog.Time("plan_date", today),
		slog.Int("requested", size),
		slog.Int("added", added))
	return added, nil
}

// NextFromPlan implements PlanService.NextFromPlan.
func (s *planServiceImpl) NextFromPlan(ctx context.Context) (*domain.PlanItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := s.plans.NextPending(ctx, s.Today())
	if err != nil {
		if errors.Is(err, store.ErrPlanItemNotFound) {
			return nil, ErrPlanExhausted
		}
		log.Error("failed to get next plan item", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get next plan item: %w", err)
	}
	return item, nil
}

// MarkDone implements PlanService.MarkDone.
func (s *planServiceImpl) MarkDone(ctx context.Context, cardID uuid.UUID) error {
	return s.markItem(ctx, cardID, domain.PlanStatusDone)
}

// MarkSkipped implements PlanService.MarkSkipped.
func (s *planServiceImpl) MarkSkipped(ctx context.Context, cardID uuid.UUID) error {
	return s.markItem(ctx, cardID, domain.PlanStatusSkipped)
}

func (s *planServiceImpl) markItem(
	ctx context.Context,
	cardID uuid.UUID,
	status domain.PlanStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.plans.UpdateItemStatus(ctx, s.Today(), cardID, status)
	if err != nil {
		if errors.Is(err, store.ErrPlanItemNotFound) {
			return ErrItemNotFound
		}
		log.Error("failed to update plan item status",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("status", status.String()))
		return fmt.Errorf("failed to update plan item status: %w", err)
	}
	return nil
}

// RollRemainingToday implements PlanService.RollRemainingToday.
func (s *planServiceImpl) RollRemainingToday(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rolled, err := s.plans.MarkAllPending(ctx, s.Today(), domain.PlanStatusRolled)
	if err != nil {
		log.Error("failed to roll remaining plan items", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to roll remaining plan items: %w", err)
	}

	log.Info("remaining plan items rolled", slog.Int64("count", rolled))
	return rolled, nil
}

// ClearChallengeToday implements PlanService.ClearChallengeToday.
func (s *planServiceImpl) ClearChallengeToday(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cleared, err := s.plans.MarkPendingKind(
		ctx, s.Today(), domain.PlanKindChallenge, domain.PlanStatusSkipped)
	if err != nil {
		log.Error("failed to clear challenge items", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to clear challenge items: %w", err)
	}

	log.Info("challenge items cleared", slog.Int64("count", cleared))
	return cleared, nil
}

// Counts implements PlanService.Counts.
func (s *planServiceImpl) Counts(ctx context.Context) (domain.PlanCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	counts, err := s.plans.Counts(ctx, s.Today())
	if err != nil {
		log.Error("failed to count plan items", slog.String("error", err.Error()))
		return domain.PlanCounts{}, fmt.Errorf("failed to count plan items: %w", err)
	}
	return counts, nil
}
