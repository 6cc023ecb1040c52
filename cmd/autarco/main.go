package main

import (
	"context"
	"os"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	opts := parseFlags()

	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}

	clientOptions := []autarco.Option{autarco.WithLogger(log.Logger.Level(level))}
	if opts.baseURL != "" {
		clientOptions = append(clientOptions, autarco.WithBaseURL(opts.baseURL))
	}

	client := autarco.NewAutarcoClient(opts.username, opts.password, clientOptions...)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sites, err := client.ListAccountSites(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list account sites")
	}
	util.PrintJSON(sites)

	publicKey := opts.site
	if publicKey == "" {
		if len(sites) == 0 {
			log.Fatal().Msg("account has no sites")
		}
		publicKey = sites[0].PublicKey
	}

	var (
		site        *autarco.Site
		inverters   autarco.Inverters
		solar       *autarco.Solar
		powerStats  *autarco.Stats
		energyStats *autarco.Stats
	)

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		var err error
		if site, err = client.GetSite(ctx, publicKey); err != nil {
			log.Error().Err(err).Msg("failed to get site")
		}
	})
	wg.Go(func() {
		var err error
		if inverters, err = client.GetInverters(ctx, publicKey); err != nil {
			log.Error().Err(err).Msg("failed to get inverters")
		}
	})
	wg.Go(func() {
		var err error
		if solar, err = client.GetSolar(ctx, publicKey); err != nil {
			log.Error().Err(err).Msg("failed to get solar")
		}
	})
	wg.Go(func() {
		var err error
		if powerStats, err = client.GetPowerStatistics(ctx, publicKey, opts.powerRange); err != nil {
			log.Error().Err(err).Msg("failed to get power statistics")
		}
	})
	wg.Go(func() {
		var err error
		if energyStats, err = client.GetEnergyStatistics(ctx, publicKey, opts.energyRange); err != nil {
			log.Error().Err(err).Msg("failed to get energy statistics")
		}
	})
	if r := wg.WaitAndRecover(); r != nil {
		log.Fatal().Any("recover", r.Value).Msg("fetch panicked")
	}

	if site != nil {
		util.PrintJSON(site)
	}
	if inverters.Len() > 0 {
		util.PrintJSON(inverters.Labeled())
	}
	if solar != nil {
		util.PrintJSON(solar)
	}

	if site != nil && site.HasBattery {
		battery, err := client.GetBattery(ctx, publicKey)
		if err != nil {
			log.Error().Err(err).Msg("failed to get battery")
		} else {
			util.PrintJSON(battery)
		}
	}

	if powerStats != nil {
		if perInverter, ok := powerStats.GeneratePowerStatsInverter(); ok {
			util.PrintJSON(perInverter)
		}
	}
	if energyStats != nil {
		if perInverter, ok := energyStats.GenerateEnergyStatsInverter(); ok {
			util.PrintJSON(perInverter)
		}
	}
}
