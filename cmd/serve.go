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
	"os"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/internal/ioweb"
	"github.com/spf13/cobra"
)

// getServeCmd returns the serve command.
func getServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run gnflore HTTP API",
		Long: `Run gnflore as an HTTP service.

Endpoints:
  GET /api/v1/ping
  GET /api/v1/version
  GET /api/v1/occurrences?lat=&lon=&radius=&taxonKey=  (or geometry=WKT)
  GET /api/v1/statuses?lat=&lon=&radius=&taxonKey=
  GET /api/v1/names?q=&limit=
  GET /api/v1/names/lookup?q=
  GET /metrics

Reference tables are loaded once at start.

Examples:
  gnflore serve
  gnflore serve -p 8080 -b sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyFlags(cmd, portFlag, backendFlag, jobsFlag)
			err := runServe()
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	serveCmd.Flags().IntP("port", "p", 0, "port of the HTTP service (default from config)")
	serveCmd.Flags().IntP("jobs", "j", 0, "number of name parsers")
	addBackendFlag(serveCmd)

	return serveCmd
}

func runServe() error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	a, err := newApp(ctx, cfg, refNeeds{registry: true, names: true})
	if err != nil {
		return err
	}
	defer a.Close()

	gn.Info("GNflore API is available on port <em>%d</em>", cfg.Server.Port)
	srv := ioweb.New(cfg, a.flore, a.metrics)
	return srv.Run(ctx)
}
