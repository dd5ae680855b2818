package service

import (
	"context"
	"testing"

	"swap_engine/pkg/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type execCall struct {
	sql  string
	args []any
}

type fakeTx struct {
	calls []execCall
	err   error
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func (f *fakeTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row        { return nil }

type fakeManager struct{ tx *fakeTx }

func (m *fakeManager) RunMaster(ctx context.Context, fn func(context.Context, db.Transaction) error) error {
	return fn(ctx, m.tx)
}

func (m *fakeManager) Conn() db.Transaction { return m.tx }

func TestPgRecordInsertsRow(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}
	j := NewPg(m, zap.NewNop())

	j.Record(context.Background(), Event{Symbol: "BTC-USDT-SWAP", Kind: KindOpen, Side: "buy", Size: 3, Price: 100, OrderID: "42"})

	require.Len(t, m.tx.calls, 1)
	call := m.tx.calls[0]
	assert.Contains(t, call.sql, "INSERT INTO trade_events")
	require.Len(t, call.args, 9)
	assert.NotEqual(t, uuid.Nil, call.args[0])
	assert.Equal(t, "BTC-USDT-SWAP", call.args[2])
	assert.Equal(t, "open", call.args[3])
	assert.Equal(t, "42", call.args[8])
}

func TestPgRecordSwallowsErrors(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{err: assert.AnError}}
	j := NewPg(m, zap.NewNop())
	assert.NotPanics(t, func() { j.Record(context.Background(), Event{Symbol: "X", Kind: KindClose}) })
}

func TestEnsureSchema(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}
	require.NoError(t, NewPg(m, zap.NewNop()).EnsureSchema(context.Background()))
	assert.Contains(t, m.tx.calls[0].sql, "CREATE TABLE IF NOT EXISTS trade_events")
}
