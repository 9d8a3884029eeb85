package cmd

import (
	"github.com/gnames/gnflore/pkg/config"
	"github.com/spf13/cobra"
)

// flagOpt converts a changed command line flag into config options.
type flagOpt func(cmd *cobra.Command) []config.Option

func backendFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("backend") {
		return nil
	}
	s, _ := cmd.Flags().GetString("backend")
	return []config.Option{config.OptScratchBackend(s)}
}

func radiusFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("radius") {
		return nil
	}
	f, _ := cmd.Flags().GetFloat64("radius")
	return []config.Option{config.OptSearchRadiusKm(f)}
}

func portFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("port") {
		return nil
	}
	i, _ := cmd.Flags().GetInt("port")
	return []config.Option{config.OptServerPort(i)}
}

func jobsFlag(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("jobs") {
		return nil
	}
	i, _ := cmd.Flags().GetInt("jobs")
	return []config.Option{config.OptJobsNumber(i)}
}

// applyFlags updates global configuration with flags set by user.
func applyFlags(cmd *cobra.Command, flags ...flagOpt) {
	var res []config.Option
	for _, f := range flags {
		res = append(res, f(cmd)...)
	}
	if len(res) > 0 {
		cfg.Update(res)
	}
}

func addBackendFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(
		"backend", "b", "",
		"scratch storage for pages: file, badger, sqlite or memory",
	)
}

func addLocationFlags(cmd *cobra.Command, lat, lon *float64, keys *[]int) {
	cmd.Flags().Float64Var(lat, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(lon, "lon", 0, "longitude in decimal degrees")
	cmd.Flags().Float64P("radius", "r", 0, "search radius in km (default from config)")
	cmd.Flags().IntSliceVarP(
		keys, "taxon-key", "t", []int{},
		"GBIF taxon keys to search (empty = all plants)",
	)
}
