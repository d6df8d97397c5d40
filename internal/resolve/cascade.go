package resolve

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/config"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/pkg/metrics"
)

// Cascade queries its tiers strictly in sequence and stops on the first hit,
// so a curated or community hit never costs an external round trip. An
// external hit is written back into the community store by a detached
// worker whose lifetime is independent of the caller's request.
type Cascade struct {
	tiers        []Tier
	importer     Importer
	suggester    Suggester
	pool         *ants.Pool
	writeTimeout time.Duration
	suggestLimit func() int
}

func NewCascade(tiers []Tier, importer Importer, suggester Suggester, cfg config.WritebackConfig) (*Cascade, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "write-back pool init failed")
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Cascade{
		tiers:        tiers,
		importer:     importer,
		suggester:    suggester,
		pool:         pool,
		writeTimeout: timeout,
		suggestLimit: func() int { return defaultSuggestLimit },
	}, nil
}

const defaultSuggestLimit = 5

// UseSuggestionLimit sources the per-miss suggestion cap from fn, typically
// the runtime settings table. Non-positive values fall back to the default.
func (c *Cascade) UseSuggestionLimit(fn func() int) {
	if fn != nil {
		c.suggestLimit = fn
	}
}

// Resolve runs the cascade for one barcode. Exactly one of the three
// outcomes is non-zero: a Result, a NotFound, or an error. Tier failures
// (upstream timeouts included) downgrade to a miss for that tier.
func (c *Cascade) Resolve(ctx context.Context, code string) (*Result, *NotFound, error) {
	if !ValidBarcode(code) {
		metrics.Inc(metrics.ResolveInvalid)
		return nil, nil, ErrInvalidBarcode
	}

	for _, tier := range c.tiers {
		product, err := tier.Lookup(ctx, code)
		if err != nil {
			zap.L().Warn("resolve tier failed, falling through",
				zap.String("tier", tier.Name()),
				zap.String("barcode", code),
				zap.Error(err))
			continue
		}
		if product == nil {
			continue
		}

		c.countHit(tier.Name())
		if tier.Name() == SourceExternal {
			c.dispatchWriteback(product)
		}
		return &Result{Product: product, Source: tier.Name()}, nil, nil
	}

	metrics.Inc(metrics.ResolveMiss)
	nf := &NotFound{Barcode: code, Suggestions: []string{}}
	if c.suggester != nil {
		limit := c.suggestLimit()
		if limit <= 0 {
			limit = defaultSuggestLimit
		}
		nf.Suggestions = c.suggester.Suggestions(code, limit)
	}
	return nil, nf, nil
}

func (c *Cascade) countHit(tier string) {
	switch tier {
	case SourceCurated:
		metrics.Inc(metrics.ResolveCuratedHit)
	case SourceCommunity:
		metrics.Inc(metrics.ResolveCommunityHit)
	case SourceExternal:
		metrics.Inc(metrics.ResolveExternalHit)
	}
}

// dispatchWriteback hands the normalized product to the worker pool. The
// task runs on a fresh background context so caller cancellation never
// reaches it; failures are logged and swallowed. A saturated pool drops the
// task rather than delaying the caller-visible response.
func (c *Cascade) dispatchWriteback(product *domain.Product) {
	err := c.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
		defer cancel()

		created, err := c.importer.InsertImported(ctx, product)
		if err != nil {
			metrics.Inc(metrics.WritebackFail)
			zap.L().Warn("write-back failed",
				zap.String("barcode", product.Barcode),
				zap.Error(err))
			return
		}
		metrics.Inc(metrics.WritebackOk)
		if created {
			zap.L().Info("external product imported",
				zap.String("barcode", product.Barcode),
				zap.String("name", product.Name))
		}
	})
	if err != nil {
		metrics.Inc(metrics.WritebackFail)
		zap.L().Warn("write-back dropped, pool unavailable",
			zap.String("barcode", product.Barcode),
			zap.Error(err))
	}
}

// Close releases the write-back pool. Pending tasks already submitted keep
// running until done.
func (c *Cascade) Close() {
	c.pool.Release()
}
