package main

import (
	"context"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/repo"
	"github.com/HavvokLab/autarco/troubleshoot"
	"github.com/rs/zerolog/log"
)

func init() {
	logger.Init("troubleshoot.log")
	loc, _ := time.LoadLocation("Asia/Bangkok")
	time.Local = loc
}

func main() {
	start, end, rng := parseFlags()
	cfg := config.GetConfig()

	db, err := infra.NewGormDB(cfg.Database.Path)
	if err != nil {
		log.Panic().Err(err).Msg("error open credential database")
	}

	credentials, err := repo.NewAutarcoCredentialRepo(db).FindAll()
	if err != nil {
		log.Panic().Err(err).Msg("error find all credentials")
	}

	es, err := infra.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Panic().Err(err).Msg("error create elasticsearch client")
	}

	serv := troubleshoot.NewAutarcoTroubleshoot(
		repo.NewSolarRepo(es),
		troubleshoot.WithClientOptions(
			autarco.WithBaseURL(cfg.Autarco.BaseURL),
			autarco.WithRequestTimeout(cfg.Autarco.RequestTimeout),
		),
	)

	for _, credential := range credentials {
		cred := credential
		if err := serv.ExecuteByRange(context.Background(), &cred, start, end, rng); err != nil {
			log.Error().Err(err).Str("username", cred.Username).Msg("error backfill energy")
		}
	}
}
