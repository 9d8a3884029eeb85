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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/internal/iofs"
	"github.com/gnames/gnflore/internal/iologger"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir   string
	opts      []config.Option
	cfg       *config.Config
	logCloser io.Closer
)

// getRootCmd returns the root command with all subcommands attached.
// A new command tree is created on every call, which keeps tests
// independent from each other.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf(
			"version: %s\nbuild:   %s", gnflore.Version, gnflore.Build,
		),
		Use:   "gnflore",
		Short: "GNflore finds plants and their protection statuses around a location",
		Long: `GNflore collects plant occurrences recorded around a location and
finds which of them are protected, threatened or regulated there.

Occurrences come from the GBIF occurrence search, administrative
regions and departments of France from geo.api.gouv.fr, and statuses
from the BDC status registry (BDCstatut.csv).

Commands:
  - search: download all occurrences inside an area
  - status: find species with a relevant status around a location
  - lookup: find a scientific name in the TAXREF name table
  - serve:  run the HTTP API
  - clean:  remove scratch data left by interrupted runs

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (GNFLORE_*)
  3. Config file (~/.config/gnflore/config.yaml)
  4. Built-in defaults

Environment Variables:
  Nested fields use underscores (gbif.page_size → GNFLORE_GBIF_PAGE_SIZE).

  Examples:
    GNFLORE_GBIF_BASE_URL       Occurrence search service
    GNFLORE_REGISTRY_PATH       BDC status registry, file or URL
    GNFLORE_SCRATCH_BACKEND     file, badger, sqlite or memory
    GNFLORE_LOG_LEVEL           Log level (debug/info/warn/error)`,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				_ = logCloser.Close()
				logCloser = nil
			}
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Remove the automatic "gnflore version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for gnflore")

	rootCmd.AddCommand(
		getSearchCmd(),
		getStatusCmd(),
		getLookupCmd(),
		getServeCmd(),
		getCleanCmd(),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if logCloser, err = iologger.Init(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	// Reconfigure logging with user's settings
	if err = reconfigureLogging(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"command", cmd.Name(),
	)

	return nil
}

// reconfigureLogging reinitializes the logger with the loaded configuration.
func reconfigureLogging(cfg *config.Config) error {
	if logCloser != nil {
		_ = logCloser.Close()
	}
	var err error
	logCloser, err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log)
	return err
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Environment variables are bound one by one, so it is clear which
	// of them are allowed. They match the fields of config.ToOptions().
	v.SetEnvPrefix("GNFLORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{
		"gbif.base_url",
		"gbif.kingdom_key",
		"gbif.page_size",
		"gbif.batch_size",
		"gbif.max_retries",
		"gbif.retry_delay_ms",
		"gbif.timeout_sec",

		"geo.base_url",
		"geo.cache_ttl_min",
		"geo.max_retries",
		"geo.retry_delay_ms",
		"geo.timeout_sec",

		"registry.path",
		"registry.taxref_path",
		"registry.ecology_path",
		"registry.criteria_path",
		"registry.physiognomy_path",
		"registry.phenology_path",

		"scratch.backend",

		"search.radius_km",
		"search.segments",

		"server.port",

		"log.level",
		"log.format",
		"log.destination",

		"jobs_number",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.AutomaticEnv()
}
