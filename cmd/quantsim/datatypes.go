package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quantsim/pkg/quant"
)

func datatypesCmd() *cli.Command {
	var bits int

	return &cli.Command{
		Name:  "datatypes",
		Usage: "List the registered value catalogs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "bits",
				Aliases:     []string{"b"},
				Usage:       "only list catalogs of this bit width (0 = all)",
				Destination: &bits,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			renderDatatypes(os.Stdout, bits)
			return nil
		},
	}
}

func renderDatatypes(w io.Writer, bits int) {
	var rows [][]string
	for _, c := range quant.Catalogs() {
		if bits > 0 && c.Bits != bits {
			continue
		}
		kind := c.Kind.String()
		if c.CandidateOnly {
			kind = "candidate"
		}
		rows = append(rows, []string{
			c.Name,
			strconv.Itoa(c.Bits),
			kind,
			strconv.Itoa(c.Levels),
			strconv.FormatFloat(c.MaxAbs, 'g', -1, 64),
		})
	}
	renderTable(w, []string{"NAME", "BITS", "KIND", "LEVELS", "MAX ABS"}, rows)
	_, _ = fmt.Fprintf(w, "\nint<bits>[_asym] for %d..%d bits; mixed: %s\n",
		quant.MinIntBits, quant.MaxIntBits, strings.Join(quant.MixedDatatypes(), ", "))
}
