package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quantsim/internal/analysis"
	"github.com/samcharles93/quantsim/internal/logger"
	"github.com/samcharles93/quantsim/internal/safetensors"
	"github.com/samcharles93/quantsim/pkg/quant"
)

type analyzeOptions struct {
	input      string
	tensor     string
	datatypes  []string
	quant      quantFlags
	csvPath    string
	bucketStep float64
	bucketMax  float64
	threshold  float64
}

func analyzeCmd() *cli.Command {
	var opts analyzeOptions

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "input .safetensors checkpoint",
			Destination: &opts.input,
		},
		&cli.StringFlag{
			Name:        "tensor",
			Aliases:     []string{"t"},
			Usage:       "rank-2 tensor to analyse",
			Destination: &opts.tensor,
		},
		&cli.StringSliceFlag{
			Name:        "datatype",
			Aliases:     []string{"d"},
			Usage:       "datatype to evaluate (repeatable)",
			Destination: &opts.datatypes,
		},
		&cli.StringFlag{
			Name:        "csv",
			Usage:       "also write the metrics table as CSV",
			Destination: &opts.csvPath,
		},
		&cli.Float64Flag{
			Name:        "bucket-step",
			Usage:       "absolute-error histogram step (0 disables)",
			Destination: &opts.bucketStep,
		},
		&cli.Float64Flag{
			Name:        "bucket-max",
			Usage:       "upper edge of the error histogram",
			Value:       0.1,
			Destination: &opts.bucketMax,
		},
		&cli.Float64Flag{
			Name:        "outlier-threshold",
			Usage:       "elements whose best error exceeds this are outliers (0 disables)",
			Destination: &opts.threshold,
		},
	}

	return &cli.Command{
		Name:  "analyze",
		Usage: "Compare reconstruction error of several datatypes on one tensor",
		Flags: append(flags, opts.quant.shapeFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyQuantConfig(cmd, LoadConfig(), &opts.quant)
			if opts.input == "" || opts.tensor == "" {
				return cli.Exit("analyze: --input and --tensor are required", 2)
			}
			if len(opts.datatypes) == 0 {
				if opts.quant.datatype == "" {
					return cli.Exit("analyze: at least one --datatype is required", 2)
				}
				opts.datatypes = []string{opts.quant.datatype}
			}
			return runAnalyze(ctx, opts, os.Stdout)
		},
	}
}

func loadMatrix(path, name string) (quant.Matrix, error) {
	f, err := safetensors.Open(path)
	if err != nil {
		return quant.Matrix{}, err
	}
	defer func() { _ = f.Close() }()

	data, info, err := f.ReadTensorF32(name)
	if err != nil {
		return quant.Matrix{}, err
	}
	if len(info.Shape) != 2 {
		return quant.Matrix{}, fmt.Errorf("%w: %s has shape %v, want rank 2", quant.ErrShapeMismatch, name, info.Shape)
	}
	return quant.MatrixFromFloat32(info.Shape[0], info.Shape[1], data)
}

func runAnalyze(ctx context.Context, opts analyzeOptions, stdout io.Writer) error {
	log := logger.FromContext(ctx)

	m, err := loadMatrix(opts.input, opts.tensor)
	if err != nil {
		return err
	}
	log.Info("analysing", "tensor", opts.tensor, "rows", m.Rows, "cols", m.Cols, "datatypes", len(opts.datatypes))

	reports, results, err := analysis.EvaluateAll(m, opts.datatypes, opts.quant.bits, opts.quant.groupSize)
	if err != nil {
		return err
	}

	rows := metricRows(reports)
	renderTable(stdout, metricHeader, rows)
	if opts.csvPath != "" {
		if err := writeCSV(opts.csvPath, metricHeader, rows); err != nil {
			return err
		}
		log.Info("wrote csv", "path", opts.csvPath)
	}

	labels := make([]string, len(results))
	recons := make([][]float64, len(results))
	for i, res := range results {
		labels[i] = reports[i].Datatype
		recons[i] = res.Dequantized.Data
	}

	if opts.bucketStep > 0 {
		if err := renderBuckets(stdout, m.Data, labels, recons, opts.bucketStep, opts.bucketMax); err != nil {
			return err
		}
	}

	if len(labels) > 1 {
		threshold := opts.threshold
		if threshold <= 0 {
			threshold = math.Inf(1)
		}
		best, err := analysis.SelectBest(m.Data, labels, recons, threshold)
		if err != nil {
			return err
		}
		renderBest(stdout, best)
	}
	return nil
}

var metricHeader = []string{"DATATYPE", "BITS", "GROUPING", "MSE", "MSE REP", "MSE P99", "MAX ERR", "SNR DB", "COSINE"}

func metricRows(reports []analysis.Report) [][]string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Datatype,
			strconv.Itoa(r.Bits),
			r.Grouping,
			fmt.Sprintf("%.6e", r.Metrics.MSE),
			fmt.Sprintf("%.6e", r.Groups.Rep),
			fmt.Sprintf("%.6e", r.Groups.P99),
			fmt.Sprintf("%.6e", r.Metrics.MaxError),
			fmt.Sprintf("%.2f", r.Metrics.SNR),
			fmt.Sprintf("%.6f", r.Metrics.CosineSimilarity),
		})
	}
	return rows
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func renderBuckets(w io.Writer, orig []float64, labels []string, recons [][]float64, step, limit float64) error {
	var rows [][]string
	for _, r := range recons {
		abs, err := analysis.AbsError(orig, r)
		if err != nil {
			return err
		}
		b, err := analysis.Bucketize(abs, step, limit)
		if err != nil {
			return err
		}
		if rows == nil {
			rows = make([][]string, len(b.Values))
			for j, v := range b.Values {
				rows[j] = []string{strconv.FormatFloat(v, 'g', 6, 64)}
			}
		}
		for j, c := range b.Counts {
			rows[j] = append(rows[j], strconv.Itoa(c))
		}
	}
	_, _ = fmt.Fprintln(w)
	renderTable(w, append([]string{"ABS ERR"}, labels...), rows)
	return nil
}

func renderBest(w io.Writer, best analysis.BestFormats) {
	_, _ = fmt.Fprintln(w)
	rows := make([][]string, 0, len(best.Labels)+1)
	for i, label := range best.Labels {
		rows = append(rows, []string{label, strconv.Itoa(len(best.Best[i])), analysis.CompressRanges(best.Best[i])})
	}
	if !math.IsInf(best.Threshold, 1) {
		rows = append(rows, []string{"outliers", strconv.Itoa(len(best.Outliers)), analysis.CompressRanges(best.Outliers)})
	}
	renderTable(w, []string{"BEST FORMAT", "ELEMENTS", "INDICES"}, rows)
}
