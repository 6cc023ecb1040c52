package alarm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/repo"
	"github.com/rs/zerolog"
)

// ClearAlarm sends a clear trap for every remembered alarm and forgets it.
type ClearAlarm struct {
	solarRepo repo.SolarRepo
	stateRepo repo.AlarmStateRepo
	snmp      TrapSender
	now       func() time.Time
	logger    zerolog.Logger
}

func NewClearAlarm(solarRepo repo.SolarRepo, stateRepo repo.AlarmStateRepo, snmp TrapSender) *ClearAlarm {
	return &ClearAlarm{
		solarRepo: solarRepo,
		stateRepo: stateRepo,
		snmp:      snmp,
		now:       time.Now,
		logger:    logger.NewComponentLogger("autarco_clear_alarm.log"),
	}
}

type ClearAlarmPayload struct {
	SiteName  string
	AlarmName string
	Payload   string
}

// Payload parses a remembered alarm; key is Autarco,<public key>,<serial number>,<alarm>
// and value is <site name>,<raised at>.
func (s *ClearAlarm) Payload(key, val string, date time.Time) (*ClearAlarmPayload, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("unexpected alarm key %q", key)
	}

	siteName, _, _ := strings.Cut(val, ",")
	if siteName == "" {
		siteName = parts[1]
	}

	return &ClearAlarmPayload{
		SiteName:  siteName,
		AlarmName: parts[3],
		Payload: fmt.Sprintf("Autarco,%s,%s,Clear all alarms,Date:%s",
			parts[1],
			parts[2],
			date.Format(timeLayout),
		),
	}, nil
}

func (s *ClearAlarm) Run(ctx context.Context) error {
	now := s.now()
	states, err := s.stateRepo.Scan(ctx, "Autarco,*")
	if err != nil {
		s.logger.Error().Err(err).Msg("ClearAlarm::Run() - failed to scan alarm state")
		return err
	}

	date := now.Format(timeLayout)
	documents := make([]interface{}, 0, len(states))
	for key, val := range states {
		payload, err := s.Payload(key, val, now)
		if err != nil {
			s.logger.Warn().Err(err).Msg("ClearAlarm::Run() - skip alarm")
			continue
		}

		s.snmp.SendTrap(payload.SiteName, payload.AlarmName, payload.Payload, infra.ClearSeverity, date)
		documents = append(documents, model.NewSnmpAlarmItem(now, "", payload.SiteName, payload.AlarmName, payload.Payload, infra.ClearSeverity, date))

		if err := s.stateRepo.Delete(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("ClearAlarm::Run() - failed to delete alarm state")
			return err
		}
	}

	index := model.DailyIndex(model.AlarmIndex, now)
	if err := s.solarRepo.BulkIndex(index, documents); err != nil {
		s.logger.Error().Err(err).Msg("ClearAlarm::Run() - failed to bulk index")
		return err
	}

	s.logger.Info().Int("cleared", len(documents)).Msg("ClearAlarm::Run() - success")
	return nil
}
