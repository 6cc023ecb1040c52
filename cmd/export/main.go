package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

func init() {
	logger.Init("autarco_export.log")
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to config.yaml")
	site := flag.String("site", "", "Public key of the site")
	kind := flag.String("kind", "energy", "Statistics to export: power or energy")
	rng := flag.String("range", "", "Query range: day, week, month or year")
	out := flag.String("out", "", "Output file, stdout when empty")
	flag.Parse()

	if *site == "" {
		log.Fatal().Msg("site must be provided")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	client := autarco.NewAutarcoClient(
		cfg.Autarco.Username,
		cfg.Autarco.Password,
		autarco.WithBaseURL(cfg.Autarco.BaseURL),
		autarco.WithRequestTimeout(cfg.Autarco.RequestTimeout),
		autarco.WithLogger(log.Logger),
	)
	defer client.Close()

	var w io.Writer = os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Str("file", *out).Msg("failed to create output file")
		}
		defer file.Close()
		w = file
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := export(ctx, client, *site, *kind, autarco.QueryRange(*rng), w); err != nil {
		log.Fatal().Err(err).Str("site", *site).Str("kind", *kind).Msg("failed to export statistics")
	}
}

func export(ctx context.Context, client *autarco.AutarcoClient, site, kind string, rng autarco.QueryRange, w io.Writer) error {
	switch kind {
	case "power":
		stats, err := client.GetPowerStatistics(ctx, site, rng)
		if err != nil {
			return err
		}
		return gocsv.Marshal(PowerRows(stats), w)
	case "energy":
		stats, err := client.GetEnergyStatistics(ctx, site, rng)
		if err != nil {
			return err
		}
		return gocsv.Marshal(EnergyRows(stats), w)
	default:
		return fmt.Errorf("kind must be power or energy, got %q", kind)
	}
}
