package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnflore/internal/iogbif"
	"github.com/gnames/gnflore/internal/iogeo"
	"github.com/gnames/gnflore/internal/iometrics"
	"github.com/gnames/gnflore/internal/ioregistry"
	"github.com/gnames/gnflore/internal/ioscratch"
	"github.com/gnames/gnflore/pkg/aggregate"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/ent/nameidx"
	"github.com/gnames/gnflore/pkg/ent/status"
	"github.com/gnames/gnflore/pkg/ent/traits"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/gnames/gnflore/pkg/parserpool"
	"github.com/gnames/gnflore/pkg/refdata"
	"github.com/gnames/gnflore/pkg/retry"
	"github.com/gnames/gnflore/pkg/scratch"
)

// refNeeds tells which reference tables a command uses.
type refNeeds struct {
	registry bool
	names    bool
}

// app keeps everything a command needs, wired from the configuration.
type app struct {
	flore   gnflore.Flore
	engine  *aggregate.Engine
	store   scratch.Store
	parser  parserpool.Pool
	metrics *iometrics.Metrics
}

// aggregateConfig converts occurrence search settings to paging
// parameters of the aggregation engine.
func aggregateConfig(cfg *config.Config) aggregate.Config {
	return aggregate.Config{
		PageSize:   cfg.GBIF.PageSize,
		BatchSize:  cfg.GBIF.BatchSize,
		KingdomKey: cfg.GBIF.KingdomKey,
		Retry: retry.Policy{
			MaxAttempts: cfg.GBIF.MaxRetries,
			Delay:       time.Duration(cfg.GBIF.RetryDelayMs) * time.Millisecond,
		},
	}
}

// traitSources maps every trait table to its configured location.
func traitSources(cfg *config.Config) map[traits.Kind]string {
	return map[traits.Kind]string{
		traits.Ecology:     cfg.Registry.EcologyPath,
		traits.Criteria:    cfg.Registry.CriteriaPath,
		traits.Physiognomy: cfg.Registry.PhysiognomyPath,
		traits.Phenology:   cfg.Registry.PhenologyPath,
	}
}

func newApp(ctx context.Context, cfg *config.Config, needs refNeeds) (*app, error) {
	m, err := iometrics.New()
	if err != nil {
		return nil, err
	}

	var reg *status.Registry
	if needs.registry {
		reg, err = ioregistry.LoadRegistry(ctx, cfg.RegistryPath())
		if err != nil {
			return nil, err
		}
	}

	var names *nameidx.Index
	var tr *traits.Table
	if needs.names {
		names, err = ioregistry.LoadNames(ctx, cfg.Registry.TaxrefPath)
		if err != nil {
			return nil, err
		}
		tr, err = ioregistry.LoadTraits(ctx, traitSources(cfg))
		if err != nil {
			return nil, err
		}
	}

	store, err := ioscratch.New(cfg)
	if err != nil {
		return nil, err
	}

	res := &app{
		store:   store,
		metrics: m,
		parser:  parserpool.NewPool(cfg.JobsNumber),
	}
	src := iogbif.New(cfg, m)
	res.engine = aggregate.New(aggregateConfig(cfg), src, store)
	geo := iogeo.New(cfg, m)
	res.flore = gnflore.New(
		cfg, res.engine, geo, refdata.New(reg, names, tr), res.parser,
	)
	return res, nil
}

// Close releases parsers and removes scratch data.
func (a *app) Close() {
	a.parser.Close()
	if err := a.store.Close(); err != nil {
		gn.PrintErrorMessage(err)
	}
}

// isCanceled is true when a run was interrupted by the user.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
