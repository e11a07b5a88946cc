package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Predict fits a fresh model on window and classifies x. Nothing is kept
// between calls. A window with a single class predicts that class without
// fitting; a fit that fails numerically falls back to the majority class.
func Predict(window []Sample, x []float64) (bool, error) {
	if len(window) == 0 {
		return false, fmt.Errorf("classifier.Predict: empty window: %w", domain.ErrInsufficientHistory)
	}

	positives := 0
	for _, s := range window {
		if s.Y {
			positives++
		}
	}
	if positives == 0 || positives == len(window) {
		return positives > 0, nil
	}

	model, err := Fit(window)
	if err != nil {
		slog.Debug("classifier: fit failed, using majority class", "err", err, "window", len(window))
		return 2*positives > len(window), nil
	}
	return model.Predict(x), nil
}

// TrainingWindow returns the `window` most recent labelled rows whose response
// window closed strictly before day t (label j is usable when j+n < t), oldest first.
func TrainingWindow(rows []*domain.FeatureRow, labels []*domain.ResponseLabel, t, window, n int) ([]Sample, error) {
	samples := make([]Sample, 0, window)
	for j := t - n - 1; j >= 0 && len(samples) < window; j-- {
		if j >= len(rows) || rows[j] == nil || labels[j] == nil {
			break
		}
		samples = append(samples, Sample{X: rows[j].Vector(), Y: labels[j].Filled})
	}
	if len(samples) < window {
		return nil, fmt.Errorf("classifier.TrainingWindow: day %d has %d elapsed labelled rows, need %d: %w",
			t, len(samples), window, domain.ErrInsufficientHistory)
	}
	for i, k := 0, len(samples)-1; i < k; i, k = i+1, k-1 {
		samples[i], samples[k] = samples[k], samples[i]
	}
	return samples, nil
}

// PredictAt is the walk-forward prediction for day t.
func PredictAt(rows []*domain.FeatureRow, labels []*domain.ResponseLabel, t, window, n int) (bool, error) {
	if t < 0 || t >= len(rows) || rows[t] == nil {
		return false, fmt.Errorf("classifier.PredictAt: no feature row for day %d: %w", t, domain.ErrInsufficientHistory)
	}
	samples, err := TrainingWindow(rows, labels, t, window, n)
	if err != nil {
		return false, err
	}
	return Predict(samples, rows[t].Vector())
}

// PredictRange evaluates PredictAt for every day in [from, to] in parallel.
// out[k] is the prediction for day from+k.
func PredictRange(ctx context.Context, rows []*domain.FeatureRow, labels []*domain.ResponseLabel, from, to, window, n, workers int) ([]bool, error) {
	if to < from {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]bool, to-from+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := from; t <= to; t++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := PredictAt(rows, labels, t, window, n)
			if err != nil {
				return err
			}
			out[t-from] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("classifier.PredictRange: %w", err)
	}
	return out, nil
}
