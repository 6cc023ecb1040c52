package main

import (
	"flag"
	"os"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/config"
	"github.com/rs/zerolog/log"
)

type options struct {
	username    string
	password    string
	baseURL     string
	site        string
	powerRange  autarco.QueryRange
	energyRange autarco.QueryRange
	debug       bool
}

// parseFlags reads the credentials from the flags, falling back to the
// autarco section of the config file when one is given.
func parseFlags() options {
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	username := flag.String("username", os.Getenv("AUTARCO_USERNAME"), "Autarco account e-mail")
	password := flag.String("password", os.Getenv("AUTARCO_PASSWORD"), "Autarco account password")
	site := flag.String("site", "", "Public key of the site, defaults to the first site of the account")
	powerRange := flag.String("power-range", autarco.QueryRangeDay.String(), "Range of the power statistics: day, week, month or year")
	energyRange := flag.String("energy-range", autarco.QueryRangeMonth.String(), "Range of the energy statistics: day, week, month or year")
	debug := flag.Bool("debug", false, "Log every request")
	flag.Parse()

	opts := options{
		username:    *username,
		password:    *password,
		site:        *site,
		powerRange:  autarco.QueryRange(*powerRange),
		energyRange: autarco.QueryRange(*energyRange),
		debug:       *debug,
	}

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		if opts.username == "" {
			opts.username = cfg.Autarco.Username
			opts.password = cfg.Autarco.Password
		}
		opts.baseURL = cfg.Autarco.BaseURL
	}

	if opts.username == "" || opts.password == "" {
		log.Fatal().Msg("username and password must be provided")
	}

	return opts
}
