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
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnflore/pkg/ent/occ"
	"github.com/gnames/gnflore/pkg/ent/wkt"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/gnames/gnfmt"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// getSearchCmd returns the search command.
func getSearchCmd() *cobra.Command {
	var (
		lat, lon   float64
		taxonKeys  []int
		kingdomKey int
		geometry   string
		progress   bool
		pretty     bool
	)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Download all plant occurrences inside an area",
		Long: `Download every occurrence record inside an area from the GBIF
occurrence search.

The area is a WKT polygon given with --geometry, or a circle around
--lat/--lon with --radius kilometers. Results are requested page by
page, groups of pages are moved to scratch storage while the download
goes on, and the complete list is printed as JSON.

Examples:
  # Plants within 5 km of Grenoble
  gnflore search --lat 45.1885 --lon 5.7245

  # One taxon inside a polygon, keeping pages in Badger
  gnflore search -g 'POLYGON((5 45,6 45,6 46,5 46,5 45))' -t 2685484 -b badger

  # Fungi instead of plants
  gnflore search --lat 45.1885 --lon 5.7245 -k 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd, backendFlag, radiusFlag, jobsFlag)
			q := occ.SearchQuery{TaxonKeys: taxonKeys, KingdomKey: kingdomKey}
			switch {
			case geometry != "":
				q.Geometry = geometry
			case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon"):
				sq := gnflore.StatusQuery{
					Lat: lat, Lon: lon, RadiusKm: cfg.Search.RadiusKm,
				}
				if err := sq.Validate(); err != nil {
					err = gnflore.InvalidLocationError(sq, err)
					gn.PrintErrorMessage(err)
					return err
				}
				q.Geometry = wkt.CircularPolygon(
					lat, lon, cfg.Search.RadiusKm, cfg.Search.Segments,
				)
			default:
				err := errors.New("either --geometry or both --lat and --lon are required")
				gn.PrintErrorMessage(err)
				return err
			}

			err := runSearch(cmd, q, progress, pretty)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	addLocationFlags(searchCmd, &lat, &lon, &taxonKeys)
	addBackendFlag(searchCmd)
	searchCmd.Flags().StringVarP(
		&geometry, "geometry", "g", "",
		"WKT polygon of the search area",
	)
	searchCmd.Flags().BoolVarP(
		&progress, "progress", "p", isatty.IsTerminal(os.Stderr.Fd()),
		"show progress bar",
	)
	searchCmd.Flags().IntVarP(
		&kingdomKey, "kingdom-key", "k", 0,
		"GBIF kingdom key used without taxon keys (default from config)",
	)
	searchCmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	searchCmd.Flags().IntP("jobs", "j", 0, "number of name parsers")

	return searchCmd
}

func runSearch(
	cmd *cobra.Command,
	q occ.SearchQuery,
	progress bool,
	pretty bool,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, refNeeds{})
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *pb.ProgressBar
	var onPage func(done, total int)
	if progress {
		onPage = func(done, total int) {
			if bar == nil {
				bar = pb.Full.Start(total)
				bar.Set("prefix", "Fetching pages: ")
				bar.Set(pb.CleanOnFinish, true)
			}
			bar.SetCurrent(int64(done))
		}
	}

	start := time.Now()
	recs, err := a.engine.Run(ctx, q, onPage)
	if bar != nil {
		bar.Finish()
	}
	if isCanceled(err) {
		gn.Warn("Search was interrupted, partial results are discarded")
		return err
	}
	if err != nil {
		return err
	}

	if recs == nil {
		recs = []occ.Record{}
	}
	if err = writeJSON(cmd.OutOrStdout(), recs, pretty); err != nil {
		return err
	}

	gn.Info("Found <em>%s</em> occurrences in %s",
		humanize.Comma(int64(len(recs))),
		gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return nil
}
