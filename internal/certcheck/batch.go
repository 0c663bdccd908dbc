package certcheck

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Analyzer is implemented by Engine.
type Analyzer interface {
	Analyze(ctx context.Context, a Artifact) *Verdict
}

var _ Analyzer = (*Engine)(nil)

// BatchAnalyze analyzes artifacts concurrently, at most limit at a time
// (unbounded when limit <= 0). Verdicts are returned in input order.
// Analyses already running complete when ctx is cancelled; the rest are
// skipped and ctx's error is returned.
func BatchAnalyze(ctx context.Context, an Analyzer, artifacts []Artifact, limit int) ([]*Verdict, error) {
	verdicts := make([]*Verdict, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, a := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdicts[i] = an.Analyze(gctx, a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return verdicts, err
	}
	return verdicts, nil
}
