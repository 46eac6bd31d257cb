package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
)

// TradeLogRepo implementa TradeLogRepository sobre ClickHouse.
type TradeLogRepo struct {
	db *sql.DB
}

var _ domain.TradeLogRepository = (*TradeLogRepo)(nil)

// NewTradeLogRepo abre la conexión y comprueba que el servidor responde.
func NewTradeLogRepo(ctx context.Context, addr, dbName string) (*TradeLogRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return &TradeLogRepo{db: conn}, nil
}

func NewTradeLogRepoFromDB(db *sql.DB) *TradeLogRepo {
	return &TradeLogRepo{db: db}
}

// LogBatch inserta el lote en una única transacción: ClickHouse lo envía como un bloque.
func (r *TradeLogRepo) LogBatch(ctx context.Context, events []domain.TradeEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trade_log
		(event_id, kind, source, entity_id, user_id, status, operation, quantity, amount, lines, occurred_at, ingested_at)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	ingestedAt := time.Now().UTC()
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.EventID,
			e.Kind,
			e.Source,
			e.EntityID,
			e.UserID,
			e.Status,
			e.Operation,
			int32(e.Quantity),
			e.Amount,
			uint16(e.Lines),
			e.OccurredAt,
			ingestedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for event %s: %w", e.EventID, err)
		}
	}

	return tx.Commit()
}

// DailySales agrega pedidos creados e ingresos por día, y las unidades descontadas de stock.
func (r *TradeLogRepo) DailySales(ctx context.Context, start, end time.Time) ([]domain.DailySales, error) {
	query := `
		SELECT
			toStartOfDay(occurred_at) AS day,
			countIf(kind = 'order.created') AS orders,
			sumIf(amount, kind = 'order.created') AS revenue,
			sumIf(quantity, kind = 'stock.updated' AND operation = 'decrease') AS units
		FROM trade_log FINAL
		WHERE occurred_at BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailySales
	for rows.Next() {
		var (
			d     domain.DailySales
			units int64
		)
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue, &units); err != nil {
			return nil, err
		}
		d.UnitsReserved = units
		out = append(out, d)
	}
	return out, rows.Err()
}

// InitSchema crea la tabla si no existe. ReplacingMergeTree por event_id absorbe las
// re-entregas del broker.
func (r *TradeLogRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS trade_log (
			event_id    String,
			kind        LowCardinality(String),
			source      LowCardinality(String),
			entity_id   String,
			user_id     String,
			status      LowCardinality(String),
			operation   LowCardinality(String),
			quantity    Int32,
			amount      Float64,
			lines       UInt16,
			occurred_at DateTime64(3),
			ingested_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(ingested_at)
		PARTITION BY toYYYYMM(occurred_at)
		ORDER BY (kind, entity_id, event_id);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *TradeLogRepo) Close() error {
	return r.db.Close()
}
