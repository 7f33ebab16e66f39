package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quantsim/internal/export"
	"github.com/samcharles93/quantsim/internal/logger"
	"github.com/samcharles93/quantsim/internal/model"
	"github.com/samcharles93/quantsim/internal/safetensors"
)

type quantizeOptions struct {
	input       string
	output      string
	quant       quantFlags
	workers     int
	meta        string
	metaFormat  string
	emitAux     bool
	cast        string
	includeHead bool
	only        []string
}

func quantizeCmd() *cli.Command {
	var opts quantizeOptions

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "input .safetensors checkpoint",
			Destination: &opts.input,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output .safetensors path",
			Destination: &opts.output,
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "matrices quantized in parallel (0 = GOMAXPROCS)",
			Destination: &opts.workers,
		},
		&cli.StringFlag{
			Name:        "meta",
			Usage:       "write a calibration sidecar (.json, .msgpack or .msgpack.lz4)",
			Destination: &opts.meta,
		},
		&cli.StringFlag{
			Name:        "meta-format",
			Usage:       "write a sidecar next to --output in this encoding (json, msgpack, msgpack.lz4)",
			Destination: &opts.metaFormat,
		},
		&cli.BoolFlag{
			Name:        "emit-aux",
			Usage:       "also store codes, scales and zero points as <name>_q/_scale/_zp tensors",
			Destination: &opts.emitAux,
		},
		&cli.StringFlag{
			Name:        "cast",
			Usage:       "storage dtype of float tensors (keep, f32, f16, bf16)",
			Value:       "keep",
			Destination: &opts.cast,
		},
		&cli.BoolFlag{
			Name:        "include-head",
			Usage:       "also quantize lm_head",
			Destination: &opts.includeHead,
		},
		&cli.StringSliceFlag{
			Name:        "tensor",
			Usage:       "restrict quantization to these tensor names (repeatable)",
			Destination: &opts.only,
		},
	}

	return &cli.Command{
		Name:  "quantize",
		Usage: "Replace linear weights with their quantize-dequantize counterpart",
		Flags: append(flags, opts.quant.flags("target datatype (int4, int4_asym, fp4, mx_fp4, mixed_er, ...)")...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyQuantizeConfig(cmd, LoadConfig(), &opts)
			if opts.input == "" || opts.output == "" {
				return cli.Exit("quantize: --input and --output are required", 2)
			}
			if opts.quant.datatype == "" {
				return cli.Exit("quantize: --datatype is required", 2)
			}
			return runQuantize(ctx, opts, os.Stdout)
		},
	}
}

func runQuantize(ctx context.Context, opts quantizeOptions, stdout io.Writer) error {
	log := logger.FromContext(ctx)

	cast, err := safetensors.ParseCast(opts.cast)
	if err != nil {
		return err
	}
	metaPath, err := resolveMetaPath(opts.meta, opts.metaFormat, opts.output)
	if err != nil {
		return err
	}

	store, err := model.LoadSafetensors(opts.input)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.input, err)
	}
	log.Info("loaded checkpoint", "path", opts.input, "tensors", store.Len())

	rep, err := model.Quantize(ctx, store, model.Config{
		Datatype:    opts.quant.datatype,
		Bits:        opts.quant.bits,
		GroupSize:   opts.quant.groupSize,
		Workers:     opts.workers,
		Filter:      model.Filter{IncludeHead: opts.includeHead, Only: opts.only},
		KeepResults: opts.emitAux || metaPath != "",
	})
	if err != nil {
		return err
	}

	var extra []safetensors.TensorData
	if opts.emitAux {
		for _, l := range rep.Layers {
			aux, err := export.AuxTensors(l.Name, []int{l.Rows, l.Cols}, rep.Results[l.Name])
			if err != nil {
				return fmt.Errorf("%s: %w", l.Name, err)
			}
			extra = append(extra, aux...)
		}
	}
	if err := store.Save(opts.output, cast, extra); err != nil {
		return fmt.Errorf("save %s: %w", opts.output, err)
	}
	log.Info("wrote checkpoint", "path", opts.output, "aux", len(extra))

	if metaPath != "" {
		meta := &export.Meta{
			RunID:     rep.RunID,
			CreatedAt: time.Now().UTC(),
			Datatype:  rep.Format.Name,
			Bits:      rep.Format.Bits,
			GroupSize: rep.Grouping.GroupSize(),
		}
		for _, l := range rep.Layers {
			meta.Tensors = append(meta.Tensors, export.TensorMetaFrom(l.Name, rep.Results[l.Name], l.MSE))
		}
		meta.Sort()
		if err := export.WriteMeta(metaPath, meta); err != nil {
			return err
		}
		log.Info("wrote sidecar", "path", metaPath)
	}

	renderLayers(stdout, rep)
	return nil
}

// resolveMetaPath returns the sidecar path: an explicit --meta wins, a
// configured format derives one from the output name, otherwise none.
func resolveMetaPath(meta, format, output string) (string, error) {
	meta = strings.TrimSpace(meta)
	if meta != "" {
		if _, err := export.EncodingFromPath(meta); err != nil {
			return "", err
		}
		return filepath.Clean(meta), nil
	}
	format = strings.TrimSpace(format)
	if format == "" {
		return "", nil
	}
	enc, err := export.ParseEncoding(format)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return base + ".quant." + string(enc), nil
}

func renderLayers(w io.Writer, rep *model.Report) {
	data := make([][]string, 0, len(rep.Layers))
	for _, l := range rep.Layers {
		data = append(data, []string{
			l.Name,
			fmt.Sprintf("%dx%d", l.Rows, l.Cols),
			fmt.Sprint(l.Groups),
			fmt.Sprintf("%.4e", l.MSE),
			fmt.Sprintf("%.4e", l.MaxError),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"TENSOR", "SHAPE", "GROUPS", "MSE", "MAX ERR"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	_, _ = fmt.Fprintf(w, "\n%s %s: %d tensors quantized, %d skipped, mean MSE %.4e (%s)\n",
		rep.Format, rep.Grouping, len(rep.Layers), len(rep.Skipped), rep.MeanMSE(),
		rep.Elapsed.Round(time.Millisecond))
}
