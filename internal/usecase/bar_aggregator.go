package usecase

import (
	"sync"
	"time"

	"TrendPull/internal/domain/models"
)

// BarAggregator folds raw trades into fixed-interval OHLCV bars, one open
// bar per symbol. A bar is emitted when the first trade of the next bucket
// arrives, so bars always close on complete data.
type BarAggregator struct {
	interval time.Duration
	mu       sync.Mutex
	open     map[string]*models.Candle
}

func NewBarAggregator(interval time.Duration) *BarAggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &BarAggregator{
		interval: interval,
		open:     make(map[string]*models.Candle),
	}
}

// Add folds one trade in. It returns the completed bar when the trade opens
// a new bucket for its symbol, nil otherwise. Late trades that belong to an
// already-closed bucket are dropped.
func (a *BarAggregator) Add(t *models.Trade) *models.Candle {
	if t == nil || t.Symbol == "" || t.Timestamp <= 0 {
		return nil
	}
	bucket := time.Unix(t.Timestamp, 0).UTC().Truncate(a.interval)

	a.mu.Lock()
	defer a.mu.Unlock()

	cur, ok := a.open[t.Symbol]
	if !ok {
		a.open[t.Symbol] = newBar(t, bucket)
		return nil
	}
	if bucket.Equal(cur.Bucket) {
		applyTrade(cur, t)
		return nil
	}
	if bucket.Before(cur.Bucket) {
		return nil
	}

	done := *cur
	a.open[t.Symbol] = newBar(t, bucket)
	return &done
}

// Flush closes and returns every open bar. Meant for shutdown, where a
// partial last bar is better than a lost one.
func (a *BarAggregator) Flush() []models.Candle {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]models.Candle, 0, len(a.open))
	for _, c := range a.open {
		out = append(out, *c)
	}
	a.open = make(map[string]*models.Candle)
	return out
}

func newBar(t *models.Trade, bucket time.Time) *models.Candle {
	return &models.Candle{
		Bucket: bucket,
		Symbol: t.Symbol,
		Open:   t.Price,
		High:   t.Price,
		Low:    t.Price,
		Close:  t.Price,
		Volume: t.Volume,
	}
}

func applyTrade(c *models.Candle, t *models.Trade) {
	if t.Price > c.High {
		c.High = t.Price
	}
	if t.Price < c.Low {
		c.Low = t.Price
	}
	c.Close = t.Price
	c.Volume += t.Volume
}
