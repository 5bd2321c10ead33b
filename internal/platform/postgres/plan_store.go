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

// PostgresPlanStore implements the store.PlanStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPlanStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPlanStore creates a new PostgreSQL implementation of the PlanStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPlanStore(db store.DBTX, logger *slog.Logger) *PostgresPlanStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPlanStore{
		db:     db,
		logger: logger.With(slog.String("component", "plan_store")),
	}
}

// Ensure PostgresPlanStore implements store.PlanStore interface
var _ store.PlanStore = (*PostgresPlanStore)(nil)

// WithTx implements store.PlanStore.WithTx
func (s *PostgresPlanStore) WithTx(tx *sql.Tx) store.PlanStore {
	return &PostgresPlanStore{db: tx, logger: s.logger}
}

const planColumns = `plan_date, card_id, deck_id, kind, status, order_no`

// scanPlanItem maps one plan_items row onto a domain.PlanItem.
func scanPlanItem(row scanner) (*domain.PlanItem, error) {
	var (
		item   domain.PlanItem
		deckID uuid.NullUUID
		kind   int
		status int
	)

	err := row.Scan(
		&item.PlanDate,
		&item.CardID,
		&deckID,
		&kind,
		&status,
		&item.OrderNo,
	)
	if err != nil {
		return nil, err
	}

	if deckID.Valid {
		id := deckID.UUID
		item.DeckID = &id
	}
	item.Kind = domain.PlanKind(kind)
	item.Status = domain.PlanStatus(status)
	item.PlanDate = item.PlanDate.UTC()

	return &item, nil
}

// UpsertItem implements store.PlanStore.UpsertItem
// The insert is keyed on (plan_date, card_id); an existing row is left
// untouched so a rebuild never duplicates, reclassifies or resets a row.
func (s *PostgresPlanStore) UpsertItem(ctx context.Context, item *domain.PlanItem) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO plan_items (plan_date, card_id, deck_id, kind, status, order_no)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (plan_date, card_id) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		item.PlanDate,
		item.CardID,
		nullUUID(item.DeckID),
		int(item.Kind),
		int(item.Status),
		item.OrderNo,
	)

	if err != nil {
		log.Error("failed to upsert plan item",
			slog.String("error", err.Error()),
			slog.String("card_id", item.CardID.String()),
			slog.Time("plan_date", item.PlanDate))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to check rows affected for plan item upsert",
			slog.String("error", err.Error()))
		return false, MapError(err)
	}

	return rows > 0, nil
}

// queryPlanItems runs a query expected to return plan_items rows.
func (s *PostgresPlanStore) queryPlanItems(ctx context.Context, log *slog.Logger, query string, args ...any) ([]*domain.PlanItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query plan items", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var items []*domain.PlanItem
	for rows.Next() {
		item, err := scanPlanItem(rows)
		if err != nil {
			log.Error("failed to scan plan item row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning plan item rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if items == nil {
		items = []*domain.PlanItem{}
	}

	return items, nil
}

// ListItems implements store.PlanStore.ListItems
func (s *PostgresPlanStore) ListItems(ctx context.Context, planDate time.Time) ([]*domain.PlanItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + planColumns + `
		FROM plan_items
		WHERE plan_date = $1
		ORDER BY order_no ASC
	`
	return s.queryPlanItems(ctx, log, query, planDate)
}

// ListPending implements store.PlanStore.ListPending
func (s *PostgresPlanStore) ListPending(ctx context.Context, planDate time.Time) ([]*domain.PlanItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + planColumns + `
		FROM plan_items
		WHERE plan_date = $1 AND status = $2
		ORDER BY order_no ASC
	`
	return s.queryPlanItems(ctx, log, query, planDate, int(domain.PlanStatusPending))
}

// NextPending implements store.PlanStore.NextPending
// Returns store.ErrPlanItemNotFound if no Pending row remains.
func (s *PostgresPlanStore) NextPending(ctx context.Context, planDate time.Time) (*domain.PlanItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + planColumns + `
		FROM plan_items
		WHERE plan_date = $1 AND status = $2
		ORDER BY order_no ASC
		LIMIT 1
	`

	item, err := scanPlanItem(s.db.QueryRowContext(ctx, query, planDate, int(domain.PlanStatusPending)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no pending plan item", slog.Time("plan_date", planDate))
			return nil, store.ErrPlanItemNotFound
		}
		log.Error("failed to get next pending plan item",
			slog.String("error", err.Error()),
			slog.Time("plan_date", planDate))
		return nil, MapError(err)
	}

	return item, nil
}

// UpdateItemStatus implements store.PlanStore.UpdateItemStatus
// Returns store.ErrPlanItemNotFound if no row exists for the key.
func (s *PostgresPlanStore) UpdateItemStatus(ctx context.Context, planDate time.Time, cardID uuid.UUID, status domain.PlanStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE plan_items
		SET status = $1
		WHERE plan_date = $2 AND card_id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, int(status), planDate, cardID, int(domain.PlanStatusPending))
	if err != nil {
		log.Error("failed to update plan item status",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.Time("plan_date", planDate))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "plan item"); err != nil {
		log.Debug("plan item not found for status update",
			slog.String("card_id", cardID.String()),
			slog.Time("plan_date", planDate))
		return store.ErrPlanItemNotFound
	}

	log.Debug("plan item status updated",
		slog.String("card_id", cardID.String()),
		slog.String("status", status.String()))
	return nil
}

// MarkAllPending implements store.PlanStore.MarkAllPending
func (s *PostgresPlanStore) MarkAllPending(ctx context.Context, planDate time.Time, status domain.PlanStatus) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE plan_items
		SET status = $1
		WHERE plan_date = $2 AND status = $3
	`

	result, err := s.db.ExecContext(ctx, query, int(status), planDate, int(domain.PlanStatusPending))
	if err != nil {
		log.Error("failed to mark pending plan items",
			slog.String("error", err.Error()),
			slog.Time("plan_date", planDate))
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}

	log.Debug("marked pending plan items",
		slog.Time("plan_date", planDate),
		slog.String("status", status.String()),
		slog.Int64("count", affected))
	return affected, nil
}

// MarkPendingKind implements store.PlanStore.MarkPendingKind
func (s *PostgresPlanStore) MarkPendingKind(ctx context.Context, planDate time.Time, kind domain.PlanKind, status domain.PlanStatus) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE plan_items
		SET status = $1
		WHERE plan_date = $2 AND status = $3 AND kind = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		int(status), planDate, int(domain.PlanStatusPending), int(kind))
	if err != nil {
		log.Error("failed to mark pending plan items by kind",
			slog.String("error", err.Error()),
			slog.Time("plan_date", planDate),
			slog.String("kind", kind.String()))
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, MapError(err)
	}

	return affected, nil
}

// MaxOrderNo implements store.PlanStore.MaxOrderNo
func (s *PostgresPlanStore) MaxOrderNo(ctx context.Context, planDate time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var maxOrder int
	query := `SELECT COALESCE(MAX(order_no), 0) FROM plan_items WHERE plan_date = $1`
	if err := s.db.QueryRowContext(ctx, query, planDate).Scan(&maxOrder); err != nil {
		log.Error("failed to get max order no",
			slog.String("error", err.Error()),
			slog.Time("plan_date", planDate))
		return 0, MapError(err)
	}

	return maxOrder, nil
}

// Counts implements store.PlanStore.Counts
func (s *PostgresPlanStore) Counts(ctx context.Context, planDate time.Time) (domain.PlanCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT status, COUNT(*)
		FROM plan_items
		WHERE plan_date = $1
		GROUP BY status
	`

	rows, err := s.db.QueryContext(ctx, query, planDate)
	if err != nil {
		log.Error("failed to query plan counts",
			slog.String("error", err.Error()),
			slog.Time("plan_date", planDate))
		return domain.PlanCounts{}, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var counts domain.PlanCounts
	for rows.Next() {
		var status, n int
		if err := rows.Scan(&status, &n); err != nil {
			log.Error("failed to scan plan count row", slog.String("error", err.Error()))
			return domain.PlanCounts{}, MapError(err)
		}

		switch domain.PlanStatus(status) {
		case domain.PlanStatusPending:
			counts.Pending = n
		case domain.PlanStatusDone:
			counts.Done = n
		case domain.PlanStatusRolled:
			counts.Rolled = n
		case domain.PlanStatusSkipped:
			counts.Skipped = n
		}
		counts.Total += n
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning plan count rows", slog.String("error", err.Error()))
		return domain.PlanCounts{}, MapError(err)
	}

	return counts, nil
}
