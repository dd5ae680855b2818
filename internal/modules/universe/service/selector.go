package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"swap_engine/internal/exchange"
	"swap_engine/internal/helper"
	"swap_engine/internal/models"
	"swap_engine/internal/modules/config"
	portfolio "swap_engine/internal/modules/portfolio/service"

	"go.uber.org/zap"
)

// Selector раскладывает символы по частотным корзинам по 24h-волатильности.
type Selector struct {
	cfg    config.UniverseConfig
	market exchange.MarketClient
	book   *portfolio.Book
	log    *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	topVol   []string
	rankedAt time.Time
}

func NewSelector(cfg *config.Config, market exchange.MarketClient, book *portfolio.Book, log *zap.Logger) *Selector {
	return &Selector{
		cfg:    cfg.Universe,
		market: market,
		book:   book,
		log:    log.Named("universe"),
		now:    time.Now,
	}
}

// Select пересобирает корзины и кладёт их в книгу.
// Пустой ответ тикеров оставляет прежние корзины.
func (s *Selector) Select(ctx context.Context) (portfolio.Tiers, error) {
	tickers, err := s.market.Tickers(ctx)
	if err != nil || len(tickers) == 0 {
		prev := s.book.Tiers()
		if len(prev.All()) == 0 {
			prev = s.defaults()
		}
		prev = s.forcePositions(prev)
		s.book.SetTiers(prev)
		s.log.Warn("[UNIVERSE] no tickers, keeping previous tiers", zap.Error(err), zap.Int("symbols", len(prev.All())))
		return prev, err
	}

	vol := make(map[string]float64, len(tickers))
	swaps := make([]models.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if !helper.IsUSDTSwap(t.InstID) || t.Open24h <= 0 || t.Last <= 0 {
			continue
		}
		vol[t.InstID] = (t.High24h - t.Low24h) / t.Open24h
		swaps = append(swaps, t)
	}

	candidates := s.candidates(swaps, vol)
	tiers := split(candidates, vol)
	tiers = s.forcePositions(tiers)
	s.book.SetTiers(tiers)

	s.log.Info("[UNIVERSE] symbols selected",
		zap.Int("high", len(tiers.High)),
		zap.Int("medium", len(tiers.Medium)),
		zap.Int("low", len(tiers.Low)),
	)
	return tiers, nil
}

func (s *Selector) defaults() portfolio.Tiers {
	return portfolio.Tiers{
		High:   append([]string(nil), s.cfg.High...),
		Medium: append([]string(nil), s.cfg.Medium...),
		Low:    append([]string(nil), s.cfg.Low...),
	}
}

// candidates: дефолтные корзины плюс топ по обороту, только живые на бирже.
func (s *Selector) candidates(swaps []models.Ticker, vol map[string]float64) []string {
	top := s.topVolume(swaps)

	seen := map[string]bool{}
	var out []string
	for _, list := range [][]string{s.cfg.High, s.cfg.Medium, s.cfg.Low, top} {
		for _, sym := range list {
			if _, live := vol[sym]; !live || seen[sym] {
				continue
			}
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

// topVolume пересчитывается не чаще VolumeRerank.
func (s *Selector) topVolume(swaps []models.Ticker) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if len(s.topVol) > 0 && now.Sub(s.rankedAt) < s.cfg.VolumeRerank {
		return s.topVol
	}

	ranked := append([]models.Ticker(nil), swaps...)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].VolCcy24h > ranked[j].VolCcy24h })
	n := min(s.cfg.TopVolumeN, len(ranked))
	top := make([]string, 0, n)
	for _, t := range ranked[:n] {
		top = append(top, t.InstID)
	}
	s.topVol, s.rankedAt = top, now
	s.log.Info("[UNIVERSE] volume ranking refreshed", zap.Strings("top", top))
	return top
}

// split по 33-му и 66-му перцентилям волатильности.
func split(symbols []string, vol map[string]float64) portfolio.Tiers {
	var t portfolio.Tiers
	if len(symbols) == 0 {
		return t
	}
	values := make([]float64, 0, len(symbols))
	for _, sym := range symbols {
		values = append(values, vol[sym])
	}
	sort.Float64s(values)
	p33, p66 := percentile(values, 33), percentile(values, 66)

	for _, sym := range symbols {
		switch v := vol[sym]; {
		case v >= p66:
			t.High = append(t.High, sym)
		case v >= p33:
			t.Medium = append(t.Medium, sym)
		default:
			t.Low = append(t.Low, sym)
		}
	}
	return t
}

// percentile с линейной интерполяцией по отсортированному срезу.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// forcePositions: символы с позициями всегда в high.
func (s *Selector) forcePositions(t portfolio.Tiers) portfolio.Tiers {
	held := map[string]bool{}
	for _, sym := range s.book.Symbols() {
		held[sym] = true
	}
	if len(held) == 0 {
		return t
	}
	drop := func(list []string) []string {
		out := list[:0:0]
		for _, sym := range list {
			if !held[sym] {
				out = append(out, sym)
			}
		}
		return out
	}
	out := portfolio.Tiers{Medium: drop(t.Medium), Low: drop(t.Low)}
	inHigh := map[string]bool{}
	for _, sym := range t.High {
		inHigh[sym] = true
		out.High = append(out.High, sym)
	}
	for _, sym := range s.book.Symbols() {
		if !inHigh[sym] {
			out.High = append(out.High, sym)
		}
	}
	return out
}
