package troubleshoot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/repo"
	"github.com/rs/zerolog"
	"go.openly.dev/pointy"
)

type AutarcoTroubleshoot struct {
	solarRepo     repo.SolarRepo
	clientOptions []autarco.Option
	logger        zerolog.Logger
}

type Option func(*AutarcoTroubleshoot)

func WithClientOptions(opts ...autarco.Option) Option {
	return func(t *AutarcoTroubleshoot) {
		t.clientOptions = append(t.clientOptions, opts...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *AutarcoTroubleshoot) {
		t.logger = logger
	}
}

func NewAutarcoTroubleshoot(solarRepo repo.SolarRepo, opts ...Option) *AutarcoTroubleshoot {
	t := &AutarcoTroubleshoot{
		solarRepo: solarRepo,
		logger:    logger.NewComponentLogger("autarco_troubleshoot.log"),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ExecuteByRange re-indexes the daily production of every inverter for the
// days in [start, end). rng selects how far back the portal reports; days
// outside it are not available.
func (t *AutarcoTroubleshoot) ExecuteByRange(
	ctx context.Context,
	credential *model.AutarcoCredential,
	start, end time.Time,
	rng autarco.QueryRange,
) error {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Any("recover", r).Msg("AutarcoTroubleshoot::ExecuteByRange() - panic")
		}
	}()

	clientOptions := append([]autarco.Option{autarco.WithLogger(t.logger)}, t.clientOptions...)
	client := autarco.NewAutarcoClient(credential.Username, credential.Password, clientOptions...)
	defer client.Close()

	sites, err := client.ListAccountSites(ctx)
	if err != nil {
		t.logger.Error().Err(err).Str("username", credential.Username).Msg("AutarcoTroubleshoot::ExecuteByRange() - failed to list account sites")
		return fmt.Errorf("list account sites: %w", err)
	}

	byIndex := make(map[string][]interface{})
	for _, site := range sites {
		stats, err := client.GetEnergyStatistics(ctx, site.PublicKey, rng)
		if err != nil {
			t.logger.Error().Err(err).Str("public_key", site.PublicKey).Msg("AutarcoTroubleshoot::ExecuteByRange() - failed to get energy statistics")
			continue
		}

		for index, docs := range EnergyDocuments(credential.Owner, site, stats, start, end) {
			byIndex[index] = append(byIndex[index], docs...)
		}
	}

	indices := make([]string, 0, len(byIndex))
	for index := range byIndex {
		indices = append(indices, index)
	}
	sort.Strings(indices)

	for _, index := range indices {
		if err := t.solarRepo.BulkIndex(index, byIndex[index]); err != nil {
			t.logger.Error().Err(err).Str("index", index).Msg("AutarcoTroubleshoot::ExecuteByRange() - failed to bulk index documents")
			return err
		}
		t.logger.Info().Str("index", index).Int("count", len(byIndex[index])).Msg("AutarcoTroubleshoot::ExecuteByRange() - bulk index documents success")
	}

	return nil
}

// EnergyDocuments groups the daily energy points of a site that fall in
// [start, end) by the dated index of their day. Days without a value are
// skipped.
func EnergyDocuments(owner string, site autarco.AccountSite, stats *autarco.Stats, start, end time.Time) map[string][]interface{} {
	out := make(map[string][]interface{})

	perInverter, ok := stats.GenerateEnergyStatsInverter()
	if !ok {
		return out
	}

	for serialNumber, points := range perInverter {
		for _, point := range points {
			day := point.Timestamp.Time
			if day.Before(start) || !day.Before(end) || point.Energy == nil {
				continue
			}

			index := model.DailyIndex(model.SolarIndex, day)
			out[index] = append(out[index], model.EnergyItem{
				Meta:            model.NewMeta(day, model.DataTypeEnergy, owner),
				SiteID:          site.PublicKey,
				SiteName:        pointy.String(site.SystemName),
				SerialNumber:    serialNumber,
				DailyProduction: pointy.Float64(float64(*point.Energy)),
			})
		}
	}

	return out
}
