package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"

	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
	"github.com/ajitpratap0/framekit/pkg/logger"
	"github.com/ajitpratap0/framekit/pkg/metrics"
	"github.com/ajitpratap0/framekit/pkg/mmap"
	"github.com/ajitpratap0/framekit/pkg/observability"
)

// Config configures the block engine
type Config struct {
	Workers    int    // 0 = DefaultWorkers()
	ScratchDir string // "" = os.TempDir()
}

// DefaultWorkers returns the number of physical cores, falling back to the
// logical CPU count when the topology cannot be read.
func DefaultWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Engine applies block transforms to frames with a fixed-size worker pool
type Engine struct {
	workers    int
	scratchDir string
	logger     *zap.Logger

	mu   sync.Mutex
	last RunStats
}

// NewEngine creates a block engine
func NewEngine(config Config, log *zap.Logger) *Engine {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers()
	}
	return &Engine{
		workers:    config.Workers,
		scratchDir: config.ScratchDir,
		logger:     logger.Or(log).With(zap.String("component", "block_engine")),
	}
}

// Workers returns the configured pool size
func (e *Engine) Workers() int {
	return e.workers
}

// WithWorkers returns an engine sharing e's settings with a different pool size
func (e *Engine) WithWorkers(n int) *Engine {
	return NewEngine(Config{Workers: n, ScratchDir: e.scratchDir}, e.logger)
}

// LastRun returns the statistics of the most recent successful run
func (e *Engine) LastRun() RunStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Run applies t to every block of in on min(workers, blocks) goroutines and
// returns a new frame with the same shape and layout. Workers take block indices
// from a shared atomic counter; nothing else is synchronized while transforms run.
//
// If t panics on any block the run fails with an internal error, the remaining
// blocks are abandoned and no frame is returned. ctx carries tracing only; a run
// is not cancellable.
func (e *Engine) Run(ctx context.Context, in *frame.Frame, name string, t BlockTransform) (*frame.Frame, error) {
	return e.run(ctx, in, name, t, ModeParallel)
}

// Apply runs t over the blocks of in one after another on the calling goroutine.
// The output is byte-identical to Run's.
func (e *Engine) Apply(ctx context.Context, in *frame.Frame, name string, t BlockTransform) (*frame.Frame, error) {
	return e.run(ctx, in, name, t, ModeSequential)
}

func (e *Engine) run(ctx context.Context, in *frame.Frame, name string, t BlockTransform, mode Mode) (*frame.Frame, error) {
	ctx, span := observability.NewSpan(ctx, "engine."+name)
	ol := observability.NewOperationLogger(ctx, e.logger, name)

	in.Retain()
	defer in.Release()

	table := in.Offsets()
	blocks := table.NumBlocks()
	workers := 1
	if mode == ModeParallel {
		workers = min(e.workers, blocks)
	}

	span.SetAttribute("mode", string(mode))
	span.SetAttribute("blocks", blocks)
	span.SetAttribute("workers", workers)
	span.SetAttribute("layout", in.Layout())
	ol.LogStart("block run started",
		zap.String("mode", string(mode)),
		zap.Int("blocks", blocks),
		zap.Int("workers", workers),
		zap.Stringer("layout", in.Layout()))

	start := time.Now()
	out, err := e.execute(in, name, t, mode, workers)
	elapsed := time.Since(start)
	span.End(err)
	if err != nil {
		ol.LogError("block run failed", err)
		return nil, err
	}

	metrics.BlocksProcessed.WithLabelValues(name).Add(float64(blocks))
	metrics.BlockRunDuration.WithLabelValues(name, string(mode)).Observe(elapsed.Seconds())
	metrics.FramesCreated.WithLabelValues("transform").Inc()

	stats := RunStats{
		Transform: name,
		Mode:      mode,
		Blocks:    blocks,
		Workers:   workers,
		Bytes:     in.Len(),
		Elapsed:   elapsed,
	}
	e.mu.Lock()
	e.last = stats
	e.mu.Unlock()

	ol.LogComplete("block run finished", zap.Int("blocks", blocks), zap.Int("bytes", stats.Bytes))
	return out, nil
}

func (e *Engine) execute(in *frame.Frame, name string, t BlockTransform, mode Mode, workers int) (*frame.Frame, error) {
	var (
		region *mmap.Region
		err    error
	)
	if mode == ModeParallel {
		region, err = mmap.Scratch(e.scratchDir, in.Len())
	} else {
		region, err = mmap.Anonymous(in.Len())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeResource, "failed to allocate output buffer").
			WithDetail("transform", name).
			WithDetail("bytes", in.Len())
	}

	src, dst := in.Bytes(), region.Bytes()
	table := in.Offsets()
	blocks := table.NumBlocks()

	if mode == ModeSequential {
		for i := 0; i < blocks; i++ {
			if err := runBlock(name, t, src, dst, table, i); err != nil {
				region.Close()
				return nil, err
			}
		}
	} else if err := runPool(name, t, src, dst, table, workers); err != nil {
		region.Close()
		return nil, err
	}

	return frame.FromRegion(region, in.Rows(), in.Columns(), in.RowLabels(), in.ColumnNames(), in.Layout())
}

// runPool drains the block queue with workers goroutines and returns the first
// failure, if any.
func runPool(name string, t BlockTransform, src, dst []byte, table frame.OffsetTable, workers int) error {
	blocks := table.NumBlocks()

	var (
		next     atomic.Int64
		failed   atomic.Bool
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !failed.Load() {
				i := int(next.Add(1) - 1)
				if i >= blocks {
					return
				}
				if err := runBlock(name, t, src, dst, table, i); err != nil {
					errOnce.Do(func() { firstErr = err })
					failed.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()
	return firstErr
}

// runBlock invokes t on block i and turns a panic into an internal error
func runBlock(name string, t BlockTransform, src, dst []byte, table frame.OffsetTable, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrorTypeInternal, fmt.Sprintf("transform %s failed on block %d: %v", name, i, r)).
				WithDetail("transform", name).
				WithDetail("block", i)
		}
	}()

	block := table.Block(i)
	t(src, NewBlockWriter(dst, block), block)
	return nil
}
