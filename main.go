package main

import (
	"context"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/collector"
	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/pkg/util"
	"github.com/HavvokLab/autarco/repo"
	"github.com/rs/zerolog/log"
)

// Collects the account from config.yaml once into memory and prints the
// documents instead of indexing them.
func main() {
	logger.Init("autarco.log")
	cfg := config.GetConfig()

	solarRepo := repo.NewSolarMockRepo()
	serv := collector.NewAutarcoCollector(
		solarRepo,
		collector.WithLogger(log.Logger),
		collector.WithClientOptions(
			autarco.WithBaseURL(cfg.Autarco.BaseURL),
			autarco.WithRequestTimeout(cfg.Autarco.RequestTimeout),
		),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := serv.Execute(ctx, &model.AutarcoCredential{
		Username: cfg.Autarco.Username,
		Password: cfg.Autarco.Password,
		Owner:    "CONFIG",
	}); err != nil {
		log.Fatal().Err(err).Msg("collect failed")
	}

	util.PrintJSON(solarRepo.Documents())
}
