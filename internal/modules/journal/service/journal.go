package service

import (
	"context"
	"time"

	"swap_engine/pkg/db"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Kind — тип события журнала.
type Kind string

const (
	KindOrder    Kind = "order"
	KindOpen     Kind = "open"
	KindClose    Kind = "close"
	KindPartial  Kind = "partial"
	KindStop     Kind = "stop"
	KindRollover Kind = "rollover"
	KindAdd      Kind = "add"
	KindCancel   Kind = "cancel"
)

type Event struct {
	ID      uuid.UUID
	Time    time.Time
	Symbol  string
	Kind    Kind
	Side    string
	Size    float64
	Price   float64
	Reason  string
	OrderID string
}

// Recorder пишет аудит сделок. Журнал только пишется, движок его не читает.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

type Nop struct{}

func (Nop) Record(context.Context, Event) {}

const schema = `
CREATE TABLE IF NOT EXISTS trade_events (
	id       uuid PRIMARY KEY,
	ts       timestamptz NOT NULL,
	symbol   text NOT NULL,
	kind     text NOT NULL,
	side     text NOT NULL DEFAULT '',
	size     double precision NOT NULL DEFAULT 0,
	price    double precision NOT NULL DEFAULT 0,
	reason   text NOT NULL DEFAULT '',
	order_id text NOT NULL DEFAULT ''
)`

const insertEvent = `
INSERT INTO trade_events (id, ts, symbol, kind, side, size, price, reason, order_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Pg — журнал в таблице trade_events.
type Pg struct {
	tx      db.TxManager
	log     *zap.Logger
	timeout time.Duration
}

func NewPg(tx db.TxManager, log *zap.Logger) *Pg {
	return &Pg{tx: tx, log: log.Named("journal"), timeout: 3 * time.Second}
}

func (p *Pg) EnsureSchema(ctx context.Context) error {
	_, err := p.tx.Conn().Exec(ctx, schema)
	return errors.Wrap(err, "journal: create trade_events")
}

// Record не возвращает ошибку: сбой журнала не должен мешать торговле.
func (p *Pg) Record(ctx context.Context, ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertEvent,
			ev.ID, ev.Time, ev.Symbol, string(ev.Kind), ev.Side, ev.Size, ev.Price, ev.Reason, ev.OrderID)
		return err
	})
	if err != nil {
		p.log.Warn("[JOURNAL] insert failed", zap.String("symbol", ev.Symbol), zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}
