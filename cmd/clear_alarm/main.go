package main

import (
	"context"
	"time"

	"github.com/HavvokLab/autarco/alarm"
	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/repo"
	"github.com/rs/zerolog/log"
)

func init() {
	logger.Init("clear_alarm.log")
	loc, _ := time.LoadLocation("Asia/Bangkok")
	time.Local = loc
}

func main() {
	cfg := config.GetConfig()

	snmp, err := infra.NewSnmpOrchestrator(infra.TrapTypeClearAlarm, cfg.SnmpList)
	if err != nil {
		log.Panic().Err(err).Msg("error create snmp orchestrator")
	}
	defer snmp.Close()

	rdb, err := infra.NewRedis(cfg.Redis)
	if err != nil {
		log.Panic().Err(err).Msg("error create redis client")
	}
	defer rdb.Close()

	es, err := infra.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Panic().Err(err).Msg("error create elasticsearch client")
	}

	clearAlarm := alarm.NewClearAlarm(repo.NewSolarRepo(es), repo.NewAlarmStateRepo(rdb), snmp)
	if err := clearAlarm.Run(context.Background()); err != nil {
		log.Panic().Err(err).Msg("error run clear alarm")
	}
}
