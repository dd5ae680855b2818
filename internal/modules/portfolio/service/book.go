package service

import (
	"sort"
	"sync"
	"sync/atomic"

	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
)

// Tiers — символы по частоте опроса.
type Tiers struct {
	High   []string
	Medium []string
	Low    []string
}

func (t Tiers) All() []string {
	out := make([]string, 0, len(t.High)+len(t.Medium)+len(t.Low))
	out = append(out, t.High...)
	out = append(out, t.Medium...)
	return append(out, t.Low...)
}

// Book — контекст движка: позиции (одна на символ), флаг running и выбранные символы.
// Решения принимает один поток, мьютекс нужен для health и Telegram-команд.
type Book struct {
	mu        sync.RWMutex
	positions map[string]*models.Position
	tiers     Tiers
	running   atomic.Bool
}

func NewBook(cfg *config.Config) *Book {
	b := &Book{
		positions: make(map[string]*models.Position),
		tiers: Tiers{
			High:   append([]string(nil), cfg.Universe.High...),
			Medium: append([]string(nil), cfg.Universe.Medium...),
			Low:    append([]string(nil), cfg.Universe.Low...),
		},
	}
	b.running.Store(true)
	return b
}

func (b *Book) Running() bool { return b.running.Load() }
func (b *Book) Stop()         { b.running.Store(false) }

// Get отдаёт копию; менять позицию — через Put или Update.
func (b *Book) Get(symbol string) (*models.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.positions[symbol]
	return p.Clone(), ok
}

func (b *Book) Has(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.positions[symbol]
	return ok
}

func (b *Book) Put(p *models.Position) {
	b.mu.Lock()
	b.positions[p.Symbol] = p.Clone()
	b.mu.Unlock()
}

// Update применяет fn к позиции под блокировкой. false — позиции нет.
func (b *Book) Update(symbol string, fn func(p *models.Position)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return false
	}
	fn(p)
	return true
}

func (b *Book) Remove(symbol string) {
	b.mu.Lock()
	delete(b.positions, symbol)
	b.mu.Unlock()
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

// All — копии позиций, отсортированные по символу.
func (b *Book) All() []*models.Position {
	b.mu.RLock()
	out := make([]*models.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p.Clone())
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (b *Book) Symbols() []string {
	all := b.All()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.Symbol
	}
	return out
}

// CoinNotional — суммарный номинал всех позиций по монете.
func (b *Book) CoinNotional(coin string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sum float64
	for _, p := range b.positions {
		if p.Coin == coin {
			sum += p.Notional
		}
	}
	return sum
}

// Margins — маржа ручных и автоматических позиций.
func (b *Book) Margins() (manual, auto float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.positions {
		if p.Manual {
			manual += p.Margin
		} else {
			auto += p.Margin
		}
	}
	return manual, auto
}

func (b *Book) SetTiers(t Tiers) {
	b.mu.Lock()
	b.tiers = t
	b.mu.Unlock()
}

func (b *Book) Tiers() Tiers {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Tiers{
		High:   append([]string(nil), b.tiers.High...),
		Medium: append([]string(nil), b.tiers.Medium...),
		Low:    append([]string(nil), b.tiers.Low...),
	}
}

// WatchList — символы корзин и всех открытых позиций без повторов.
func (b *Book) WatchList() []string {
	tiers := b.Tiers().All()
	seen := make(map[string]bool, len(tiers))
	out := make([]string, 0, len(tiers))
	for _, sym := range append(tiers, b.Symbols()...) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}
