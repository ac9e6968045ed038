package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"TrendPull/internal/domain/models"
	drepo "TrendPull/internal/domain/repository"
	"TrendPull/internal/engine"
	mid "TrendPull/internal/middleware"
	"TrendPull/internal/services/volatility"
	applogger "TrendPull/pkg/logger"
)

// TrendCollector runs the live path: trades from the market stream are
// folded into bars, each closed bar advances that symbol's engine, and any
// direction flip is handed to the signal processor.
type TrendCollector struct {
	stream  drepo.MarketStream
	proc    *SignalProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
	agg     *BarAggregator
	base    engine.Config
	l       *applogger.Logger

	mu     sync.Mutex
	states map[string]*symbolState
}

// symbolState is the per-symbol live state. Each symbol gets its own engine
// and volatility stream plus a run id that tags every signal it emits.
type symbolState struct {
	eng   *engine.Engine
	vol   *volatility.Stream
	runID string
}

// NewTrendCollector creates a new TrendCollector instance. The pipeline in
// front of the bar step throttles and buffers the raw trade feed.
func NewTrendCollector(
	stream drepo.MarketStream,
	proc *SignalProcessor,
	metrics drepo.Metrics,
	base engine.Config,
	barInterval time.Duration,
	pipeOpts ...mid.PipelineOption,
) (*TrendCollector, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("collector config: %w", err)
	}
	c := &TrendCollector{
		stream:  stream,
		proc:    proc,
		metrics: metrics,
		agg:     NewBarAggregator(barInterval),
		base:    base,
		states:  make(map[string]*symbolState),
	}
	c.pipe = mid.NewRealtimePipeline(collectorProc{c}, metrics, pipeOpts...)
	return c, nil
}

// SetLogger injects a structured logger.
func (c *TrendCollector) SetLogger(l *applogger.Logger) { c.l = l }

// IsConnected returns true if the market stream is connected.
func (c *TrendCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TrendCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	trCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, trCh, errCh)
	return nil
}

func (c *TrendCollector) consume(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-trCh:
			if t == nil {
				continue
			}
			_ = c.pipe.Process(ctx, t)
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// collectorProc adapts the collector's bar step to the pipeline Proc shape.
type collectorProc struct{ c *TrendCollector }

func (p collectorProc) Process(ctx context.Context, t *models.Trade) error {
	return p.c.processTrade(ctx, t)
}

func (c *TrendCollector) processTrade(ctx context.Context, t *models.Trade) error {
	bar := c.agg.Add(t)
	if bar == nil {
		return nil
	}
	return c.processBar(ctx, *bar)
}

func (c *TrendCollector) processBar(ctx context.Context, bar models.Candle) error {
	st, err := c.stateFor(bar.Symbol)
	if err != nil {
		return err
	}

	vol := st.vol.Update(bar.High, bar.Low, bar.Close)
	point, sig := st.eng.Step(bar, vol)

	c.metrics.RecordBarProcessed(bar.Symbol)
	if point.Valid {
		c.metrics.RecordTrailingStop(bar.Symbol, point.TrailingStop)
	}
	if snap := st.eng.Snapshot(); snap != nil && snap.Bucket.Equal(bar.Bucket) {
		c.metrics.RecordClusterRun(bar.Symbol, snap.Iterations)
	}

	if sig == nil {
		return nil
	}
	sig.RunID = st.runID
	if c.l != nil {
		c.l.Info("trend flip",
			applogger.String("symbol", sig.Symbol),
			applogger.String("direction", sig.Direction),
			applogger.Float64("price", sig.Price),
			applogger.Int("strength", sig.Strength),
		)
	}
	return c.proc.Process(ctx, sig)
}

func (c *TrendCollector) stateFor(symbol string) (*symbolState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.states[symbol]; ok {
		return st, nil
	}
	eng, err := engine.New(c.base)
	if err != nil {
		return nil, fmt.Errorf("engine for %s: %w", symbol, err)
	}
	st := &symbolState{
		eng:   eng,
		vol:   volatility.NewStream(c.base.ATRLength),
		runID: uuid.NewString(),
	}
	c.states[symbol] = st
	return st, nil
}

func (c *TrendCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying SignalProcessor for lifecycle management.
func (c *TrendCollector) Processor() *SignalProcessor { return c.proc }

// Shutdown stops the pipeline, drains open bars through the engines, and
// closes the stream.
func (c *TrendCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	for _, bar := range c.agg.Flush() {
		_ = c.processBar(ctx, bar)
	}
	return c.stream.Close()
}
