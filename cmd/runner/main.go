package main

import (
	"context"
	"fmt"
	"time"

	"github.com/HavvokLab/autarco/alarm"
	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/collector"
	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/repo"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"gorm.io/gorm"
)

const jobTimeout = 10 * time.Minute

var (
	collectJobLogger = logger.NewComponentLogger("autarco_collect.log")
	alarmJobLogger   = logger.NewComponentLogger("autarco_alarm_job.log")
)

type runner struct {
	cfg       config.Config
	db        *gorm.DB
	solarRepo repo.SolarRepo
}

func main() {
	logger.Init("runner.log")
	if loc, err := time.LoadLocation("Asia/Bangkok"); err == nil {
		time.Local = loc
	}

	cfg := config.GetConfig()
	db, err := infra.NewGormDB(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open credential database")
	}

	es, err := infra.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create elasticsearch client")
	}

	r := &runner{cfg: cfg, db: db, solarRepo: repo.NewSolarRepo(es)}

	cron := gocron.NewScheduler(time.Local)
	if err := r.registerJobs(cron); err != nil {
		log.Fatal().Err(err).Msg("failed to register runner jobs")
	}

	log.Info().Msg("starting runner scheduler")
	cron.StartBlocking()
}

func (r *runner) registerJobs(cron *gocron.Scheduler) error {
	if err := addCronJob(cron, r.cfg.Crontab.CollectTime, "autarco_collect", collectJobLogger, r.runCollect); err != nil {
		return err
	}

	if err := addCronJob(cron, r.cfg.Crontab.AlarmTime, "autarco_alarm", alarmJobLogger, r.runAlarm); err != nil {
		return err
	}

	return nil
}

func addCronJob(cron *gocron.Scheduler, cronExpr, name string, jobLogger zerolog.Logger, fn func(zerolog.Logger) error) error {
	if _, err := cron.Cron(cronExpr).StartImmediately().SingletonMode().Do(func() {
		safeRun(jobLogger, name, fn)
	}); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	return nil
}

func safeRun(jobLogger zerolog.Logger, name string, fn func(zerolog.Logger) error) {
	log := jobLogger.With().Str("job", name).Logger()
	log.Info().Msg("job started")
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("recover", r).Msg("job panicked, recovered to keep scheduler alive")
		}
	}()

	if err := fn(log); err != nil {
		log.Error().Err(err).Msg("job finished with error")
		return
	}

	log.Info().Msg("job finished successfully")
}

// credentials returns the stored credentials plus the one from the config
// file, when set.
func (r *runner) credentials() ([]model.AutarcoCredential, error) {
	credentials, err := repo.NewAutarcoCredentialRepo(r.db).FindAll()
	if err != nil {
		return nil, err
	}

	if r.cfg.Autarco.Username != "" {
		credentials = append(credentials, model.AutarcoCredential{
			Username: r.cfg.Autarco.Username,
			Password: r.cfg.Autarco.Password,
			Owner:    "CONFIG",
		})
	}

	return credentials, nil
}

func (r *runner) clientOptions() []autarco.Option {
	return []autarco.Option{
		autarco.WithBaseURL(r.cfg.Autarco.BaseURL),
		autarco.WithRequestTimeout(r.cfg.Autarco.RequestTimeout),
	}
}

func (r *runner) runCollect(jobLogger zerolog.Logger) error {
	credentials, err := r.credentials()
	if err != nil {
		jobLogger.Error().Err(err).Msg("failed to find autarco credentials")
		return err
	}

	if len(credentials) == 0 {
		jobLogger.Info().Msg("no autarco credentials found")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	serv := collector.NewAutarcoCollector(
		r.solarRepo,
		collector.WithWorkers(r.cfg.Collector.Workers),
		collector.WithClientOptions(r.clientOptions()...),
	)

	wg := conc.NewWaitGroup()
	for _, credential := range credentials {
		cred := credential
		wg.Go(func() {
			if err := serv.Execute(ctx, &cred); err != nil {
				jobLogger.Error().Err(err).Str("username", cred.Username).Msg("collect failed")
			}
		})
	}

	if recovered := wg.WaitAndRecover(); recovered != nil {
		err := fmt.Errorf("autarco collect panic: %v", recovered.Value)
		jobLogger.Error().Err(err).Msg("collector recovered from panic")
		return err
	}

	return nil
}

func (r *runner) runAlarm(jobLogger zerolog.Logger) error {
	credentials, err := r.credentials()
	if err != nil {
		jobLogger.Error().Err(err).Msg("failed to find autarco credentials")
		return err
	}

	if len(credentials) == 0 {
		jobLogger.Info().Msg("no autarco credentials found")
		return nil
	}

	snmp, err := infra.NewSnmpOrchestrator(infra.TrapTypeAutarcoAlarm, r.cfg.SnmpList)
	if err != nil {
		jobLogger.Error().Err(err).Msg("failed to create snmp orchestrator")
		return err
	}
	defer snmp.Close()

	rdb, err := infra.NewRedis(r.cfg.Redis)
	if err != nil {
		jobLogger.Error().Err(err).Msg("failed to create redis client")
		return err
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	serv := alarm.NewAutarcoAlarm(
		r.solarRepo,
		repo.NewAlarmStateRepo(rdb),
		snmp,
		alarm.WithClientOptions(r.clientOptions()...),
	)

	for _, credential := range credentials {
		cred := credential
		if err := serv.Run(ctx, &cred); err != nil {
			jobLogger.Error().Err(err).Str("username", cred.Username).Msg("alarm failed")
		}
	}

	return nil
}
