/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cobra"
)

// getStatusCmd returns the status command.
func getStatusCmd() *cobra.Command {
	var (
		lat, lon  float64
		taxonKeys []int
		format    string
	)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Find protected and threatened plants around a location",
		Long: `Find plants recorded around a location that have a protection,
regulation, sensitivity or red list status in its region or department.

The region and department come from reverse geocoding of the location.
Only one status is kept per species: protections win over red list
categories, and among red list categories CR > EN > VU > NT.

The status registry is read from ~/.local/share/gnflore/BDCstatut.csv
unless registry.path is set in the config file.

Examples:
  gnflore status --lat 45.1885 --lon 5.7245
  gnflore status --lat 45.1885 --lon 5.7245 -r 2 -f csv > statuses.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd, backendFlag, radiusFlag, jobsFlag)
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				err := fmt.Errorf("both --lat and --lon are required")
				gn.PrintErrorMessage(err)
				return err
			}
			q := gnflore.StatusQuery{
				Lat:       lat,
				Lon:       lon,
				RadiusKm:  cfg.Search.RadiusKm,
				TaxonKeys: taxonKeys,
			}
			err := runStatus(cmd, q, format)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	addLocationFlags(statusCmd, &lat, &lon, &taxonKeys)
	addBackendFlag(statusCmd)
	statusCmd.Flags().StringVarP(
		&format, "format", "f", "compact",
		"output format: compact, pretty or csv",
	)
	statusCmd.Flags().IntP("jobs", "j", 0, "number of name parsers")

	return statusCmd
}

func runStatus(cmd *cobra.Command, q gnflore.StatusQuery, format string) error {
	switch format {
	case "compact", "pretty", "csv":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, refNeeds{registry: true})
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	res, err := a.flore.Statuses(ctx, q)
	if isCanceled(err) {
		gn.Warn("Status search was interrupted")
		return err
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "csv" {
		err = writeStatusCSV(out, res)
	} else {
		err = writeJSON(out, res, format == "pretty")
	}
	if err != nil {
		return err
	}

	gn.Info(`Location: <em>%s, %s</em>
   Occurrences: <em>%s</em>, species: <em>%s</em>, with status: <em>%d</em>
   Done in %s`,
		res.Jurisdiction.Department, res.Jurisdiction.Region,
		humanize.Comma(int64(res.OccurrencesNum)),
		humanize.Comma(int64(res.SpeciesNum)),
		len(res.Statuses),
		gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := gnfmt.GNjson{Pretty: pretty}
	out, err := enc.Encode(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimSpace(string(out)))
	return err
}

func writeStatusCSV(w io.Writer, res gnflore.StatusReport) error {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{
		"Species", "Code", "Label", "StatusType",
		"Level", "Jurisdiction", "Occurrences", "SourceID",
	})
	if err != nil {
		return err
	}
	for _, v := range res.Statuses {
		err = cw.Write([]string{
			v.Species, v.Code, v.Label, v.TypeLabel,
			v.Level.String(), v.Jurisdiction,
			strconv.Itoa(v.Occurrences), v.SourceID,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
