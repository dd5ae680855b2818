package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestGetCallsProducerOncePerTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewCache().WithClock(clock.Now)

	calls := 0
	producer := func() (float64, error) {
		calls++
		return 0.0001, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Get(c, "funding:BTC-USDT-SWAP", 180*time.Second, producer)
		require.NoError(t, err)
		assert.Equal(t, 0.0001, v)
	}
	assert.Equal(t, 1, calls)

	clock.Advance(179 * time.Second)
	_, _ = Get(c, "funding:BTC-USDT-SWAP", 180*time.Second, producer)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Second)
	_, _ = Get(c, "funding:BTC-USDT-SWAP", 180*time.Second, producer)
	assert.Equal(t, 2, calls)
}

func TestGetDoesNotStoreErrorsOrNil(t *testing.T) {
	c := NewCache()

	_, err := Get(c, "k", time.Minute, func() ([]float64, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	v, err := Get(c, "k", time.Minute, func() ([]float64, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 0, c.Len())

	_, err = Get(c, "k", time.Minute, func() ([]float64, error) { return []float64{1}, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestInvalidate(t *testing.T) {
	c := NewCache()
	calls := 0
	producer := func() (int, error) { calls++; return calls, nil }

	v, _ := Get(c, "k", time.Hour, producer)
	assert.Equal(t, 1, v)
	c.Invalidate("k")
	v, _ = Get(c, "k", time.Hour, producer)
	assert.Equal(t, 2, v)
}

func TestPutWarmsEntry(t *testing.T) {
	c := NewCache()
	c.Put("instrument:BTC-USDT-SWAP", 0.01)
	c.Put("instrument:nil", []int(nil))

	v, err := Get(c, "instrument:BTC-USDT-SWAP", time.Hour, func() (float64, error) {
		return 0, errors.New("must not be called")
	})
	require.NoError(t, err)
	assert.Equal(t, 0.01, v)
	assert.Equal(t, 1, c.Len())
}
