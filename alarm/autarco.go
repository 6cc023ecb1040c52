package alarm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/repo"
	"github.com/HavvokLab/autarco/setting"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"
	"go.openly.dev/pointy"
)

const timeLayout = "2006-01-02 15:04:05"

// TrapSender is satisfied by *infra.SnmpOrchestrator.
type TrapSender interface {
	SendTrap(deviceName, alertName, description, severity, lastedUpdateTime string)
}

type AutarcoAlarm struct {
	solarRepo     repo.SolarRepo
	stateRepo     repo.AlarmStateRepo
	snmp          TrapSender
	clientOptions []autarco.Option
	now           func() time.Time
	logger        zerolog.Logger
}

type Option func(*AutarcoAlarm)

func WithClientOptions(opts ...autarco.Option) Option {
	return func(s *AutarcoAlarm) {
		s.clientOptions = append(s.clientOptions, opts...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *AutarcoAlarm) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *AutarcoAlarm) {
		s.now = now
	}
}

func NewAutarcoAlarm(solarRepo repo.SolarRepo, stateRepo repo.AlarmStateRepo, snmp TrapSender, opts ...Option) *AutarcoAlarm {
	s := &AutarcoAlarm{
		solarRepo: solarRepo,
		stateRepo: stateRepo,
		snmp:      snmp,
		now:       time.Now,
		logger:    logger.NewComponentLogger("autarco_alarm.log"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// activeAlarm is one alarm condition that holds for an inverter right now.
type activeAlarm struct {
	key     string
	name    string
	payload string
}

func stateKey(publicKey, serialNumber, alarmName string) string {
	return fmt.Sprintf("Autarco,%s,%s,%s", publicKey, serialNumber, alarmName)
}

// inverterAlarms lists the alarm conditions of one inverter: grid turned off,
// and a reported health other than OK.
func inverterAlarms(publicKey string, inverter autarco.Inverter) []activeAlarm {
	alarms := make([]activeAlarm, 0, 2)
	payload := fmt.Sprintf("Autarco,%s,%s", publicKey, inverter.SerialNumber)

	if inverter.GridTurnedOff {
		alarms = append(alarms, activeAlarm{
			key:     stateKey(publicKey, inverter.SerialNumber, setting.AlarmNameGridOff),
			name:    setting.AlarmNameGridOff,
			payload: payload + ",grid turned off",
		})
	}

	if health := pointy.StringValue(inverter.Health, setting.HealthOK); health != setting.HealthOK {
		alarms = append(alarms, activeAlarm{
			key:     stateKey(publicKey, inverter.SerialNumber, setting.AlarmNameHealth),
			name:    setting.AlarmNameHealth,
			payload: payload + ",health " + health,
		})
	}

	return alarms
}

// Run raises a trap for every alarm condition of every inverter of the
// account and clears the remembered alarms that no longer hold.
func (s *AutarcoAlarm) Run(ctx context.Context, credential *model.AutarcoCredential) error {
	now := s.now()
	log := s.logger.With().Str("username", credential.Username).Logger()

	clientOptions := append([]autarco.Option{autarco.WithLogger(log)}, s.clientOptions...)
	client := autarco.NewAutarcoClient(credential.Username, credential.Password, clientOptions...)
	defer client.Close()

	sites, err := client.ListAccountSites(ctx)
	if err != nil {
		log.Error().Err(err).Msg("AutarcoAlarm::Run() - failed to list account sites")
		return fmt.Errorf("list account sites: %w", err)
	}

	documents := make([]interface{}, 0)
	for _, site := range sites {
		inverters, err := client.GetInverters(ctx, site.PublicKey)
		if err != nil {
			log.Error().Err(err).Str("public_key", site.PublicKey).Msg("AutarcoAlarm::Run() - failed to get inverters")
			continue
		}

		docs, err := s.checkSite(ctx, credential, site, inverters, now)
		if err != nil {
			log.Error().Err(err).Str("public_key", site.PublicKey).Msg("AutarcoAlarm::Run() - failed to check site")
			return err
		}
		documents = append(documents, docs...)
	}

	index := model.DailyIndex(model.AlarmIndex, now)
	if err := s.solarRepo.BulkIndex(index, documents); err != nil {
		log.Error().Err(err).Msg("AutarcoAlarm::Run() - failed to bulk index")
		return err
	}
	log.Info().Str("index", index).Int("document_count", len(documents)).Msg("AutarcoAlarm::Run() - success")

	return nil
}

func (s *AutarcoAlarm) checkSite(
	ctx context.Context,
	credential *model.AutarcoCredential,
	site autarco.AccountSite,
	inverters autarco.Inverters,
	now time.Time,
) ([]interface{}, error) {
	updated := now.Format(timeLayout)
	documents := make([]interface{}, 0)

	active := mapset.NewThreadUnsafeSet[string]()
	for _, inverter := range inverters.All() {
		for _, alarm := range inverterAlarms(site.PublicKey, inverter) {
			active.Add(alarm.key)
			if err := s.stateRepo.Set(ctx, alarm.key, fmt.Sprintf("%s,%s", site.SystemName, updated)); err != nil {
				return nil, err
			}

			s.snmp.SendTrap(site.SystemName, alarm.name, alarm.payload, infra.MajorSeverity, updated)
			documents = append(documents, model.NewSnmpAlarmItem(now, credential.Owner, site.SystemName, alarm.name, alarm.payload, infra.MajorSeverity, updated))
		}
	}

	remembered, err := s.stateRepo.Scan(ctx, fmt.Sprintf("Autarco,%s,*", site.PublicKey))
	if err != nil {
		return nil, err
	}

	for key, val := range remembered {
		if active.Contains(key) {
			continue
		}

		parts := strings.Split(key, ",")
		if len(parts) != 4 {
			s.logger.Warn().Str("key", key).Msg("AutarcoAlarm::checkSite() - unexpected alarm key")
			continue
		}

		siteName := site.SystemName
		if name, _, found := strings.Cut(val, ","); found && name != "" {
			siteName = name
		}

		alarmName := parts[3]
		payload := fmt.Sprintf("Autarco,%s,%s,cleared", parts[1], parts[2])
		s.snmp.SendTrap(siteName, alarmName, payload, infra.ClearSeverity, updated)
		documents = append(documents, model.NewSnmpAlarmItem(now, credential.Owner, siteName, alarmName, payload, infra.ClearSeverity, updated))

		if err := s.stateRepo.Delete(ctx, key); err != nil {
			return nil, err
		}
	}

	return documents, nil
}
