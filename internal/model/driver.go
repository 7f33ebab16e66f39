package model

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/quantsim/internal/analysis"
	"github.com/samcharles93/quantsim/internal/logger"
	"github.com/samcharles93/quantsim/pkg/quant"
)

// Config is the single global setting applied to every selected weight.
type Config struct {
	Datatype  string
	Bits      int
	GroupSize int
	// Workers bounds the number of matrices quantized at once. Zero or
	// negative means GOMAXPROCS.
	Workers int
	Filter  Filter
	// KeepResults retains the full quant.Result per layer for export.
	KeepResults bool
}

// LayerReport is the outcome for one quantized weight.
type LayerReport struct {
	Name     string  `json:"name"`
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	Groups   int     `json:"groups"`
	MSE      float64 `json:"mse"`
	MaxError float64 `json:"max_error"`
}

// Report summarises a driver run.
type Report struct {
	RunID    string                   `json:"run_id"`
	Format   quant.Format             `json:"-"`
	Grouping quant.Grouping           `json:"-"`
	Layers   []LayerReport            `json:"layers"`
	Skipped  []string                 `json:"skipped,omitempty"`
	Elapsed  time.Duration            `json:"elapsed"`
	Results  map[string]*quant.Result `json:"-"`
}

type job struct {
	tensor *Tensor
	matrix quant.Matrix
}

// Quantize replaces every selected weight in store with its
// quantize-dequantize counterpart. The datatype is resolved and every target
// shape is checked before any work starts; replacements are committed only
// after all matrices succeeded, so a failure leaves store untouched.
func Quantize(ctx context.Context, store *Store, cfg Config) (*Report, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	q, err := quant.NewQuantizer(cfg.Datatype, cfg.Bits, cfg.GroupSize)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		RunID:    uuid.NewString(),
		Format:   q.Format(),
		Grouping: q.Grouping(),
	}
	log = log.With("run", rep.RunID, "format", q.Format().String(), "grouping", q.Grouping().String())

	var jobs []job
	for _, name := range store.Names() {
		t, _ := store.Get(name)
		if !cfg.Filter.ShouldQuantize(name, t.Shape) {
			rep.Skipped = append(rep.Skipped, name)
			continue
		}
		if err := q.Check(t.Shape[0], t.Shape[1]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		m, err := t.Matrix()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{tensor: t, matrix: m})
	}
	log.Info("quantizing", "tensors", len(jobs), "skipped", len(rep.Skipped))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]*quant.Result, len(jobs))
	layers := make([]LayerReport, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := q.Quantize(j.matrix)
			if err != nil {
				return fmt.Errorf("%s: %w", j.tensor.Name, err)
			}
			metrics, err := analysis.Compare(j.matrix.Data, res.Dequantized.Data)
			if err != nil {
				return fmt.Errorf("%s: %w", j.tensor.Name, err)
			}
			results[i] = res
			layers[i] = LayerReport{
				Name:     j.tensor.Name,
				Rows:     j.matrix.Rows,
				Cols:     j.matrix.Cols,
				Groups:   res.Layout.NumGroups(),
				MSE:      metrics.MSE,
				MaxError: metrics.MaxError,
			}
			log.Debug("quantized layer", "tensor", j.tensor.Name, "groups", layers[i].Groups, "mse", metrics.MSE)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, j := range jobs {
		if err := store.Replace(j.tensor.Name, results[i].Dequantized.Float32()); err != nil {
			return nil, err
		}
	}
	if cfg.KeepResults {
		rep.Results = make(map[string]*quant.Result, len(jobs))
		for i, j := range jobs {
			rep.Results[j.tensor.Name] = results[i]
		}
	}
	rep.Layers = layers
	rep.Elapsed = time.Since(start)
	log.Info("quantized", "tensors", len(layers), "elapsed", rep.Elapsed.Round(time.Millisecond))
	return rep, nil
}

// MeanMSE is the average per-layer MSE of a run.
func (r *Report) MeanMSE() float64 {
	if len(r.Layers) == 0 {
		return 0
	}
	var sum float64
	for _, l := range r.Layers {
		sum += l.MSE
	}
	return sum / float64(len(r.Layers))
}
