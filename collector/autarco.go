package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/pkg/util"
	"github.com/HavvokLab/autarco/repo"
	"github.com/HavvokLab/autarco/setting"
	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"go.openly.dev/pointy"
)

type AutarcoCollector struct {
	solarRepo     repo.SolarRepo
	workers       int
	clientOptions []autarco.Option
	now           func() time.Time
	logger        zerolog.Logger
}

type Option func(*AutarcoCollector)

func WithWorkers(workers int) Option {
	return func(c *AutarcoCollector) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithClientOptions is applied to every client the collector creates.
func WithClientOptions(opts ...autarco.Option) Option {
	return func(c *AutarcoCollector) {
		c.clientOptions = append(c.clientOptions, opts...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *AutarcoCollector) {
		c.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *AutarcoCollector) {
		c.now = now
	}
}

func NewAutarcoCollector(solarRepo repo.SolarRepo, opts ...Option) *AutarcoCollector {
	c := &AutarcoCollector{
		solarRepo: solarRepo,
		workers:   setting.CollectorWorkers,
		now:       time.Now,
		logger:    logger.NewComponentLogger("autarco_collector.log"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Execute collects every site of the credential's account and indexes one
// snapshot per site. A site that fails is logged and left out; only a
// failure to list the account's sites is returned.
func (c *AutarcoCollector) Execute(ctx context.Context, credential *model.AutarcoCredential) error {
	now := c.now().UTC()
	log := c.logger.With().Str("username", credential.Username).Str("owner", credential.Owner).Logger()

	clientOptions := append([]autarco.Option{autarco.WithLogger(log)}, c.clientOptions...)
	client := autarco.NewAutarcoClient(credential.Username, credential.Password, clientOptions...)
	defer client.Close()

	sites, err := client.ListAccountSites(ctx)
	if err != nil {
		log.Error().Err(err).Msg("AutarcoCollector::Execute() - failed to list account sites")
		return fmt.Errorf("list account sites: %w", err)
	}

	if len(sites) == 0 {
		log.Warn().Msg("AutarcoCollector::Execute() - no sites found")
		return nil
	}

	var mu sync.Mutex
	documents := make([]interface{}, 0)
	siteDocuments := make([]model.SiteItem, 0, len(sites))

	wp := workerpool.New(c.workers)
	siteSize := len(sites)
	for i, site := range sites {
		site := site
		siteCount := fmt.Sprintf("%v/%v", i+1, siteSize)
		wp.Submit(func() {
			docs, siteDoc, err := c.collectSite(ctx, client, credential, site, now)
			if err != nil {
				log.Error().
					Err(err).
					Str("site_count", siteCount).
					Str("public_key", site.PublicKey).
					Str("site_name", site.SystemName).
					Msg("AutarcoCollector::Execute() - failed to collect site")
				return
			}

			mu.Lock()
			documents = append(documents, docs...)
			siteDocuments = append(siteDocuments, siteDoc)
			mu.Unlock()

			log.Info().
				Str("site_count", siteCount).
				Str("public_key", site.PublicKey).
				Int("document_count", len(docs)).
				Msg("AutarcoCollector::Execute() - site collected")
		})
	}
	wp.StopWait()

	index := model.DailyIndex(model.SolarIndex, now)
	if err := c.solarRepo.BulkIndex(index, documents); err != nil {
		log.Error().Err(err).Str("index", index).Msg("AutarcoCollector::Execute() - failed to bulk index documents")
	} else {
		log.Info().Str("index", index).Int("count", len(documents)).Msg("AutarcoCollector::Execute() - bulk index documents success")
	}

	if err := c.solarRepo.UpsertSiteStation(siteDocuments); err != nil {
		log.Error().Err(err).Msg("AutarcoCollector::Execute() - failed to upsert site station")
	} else {
		log.Info().Int("count", len(siteDocuments)).Msg("AutarcoCollector::Execute() - upsert site station success")
	}

	return nil
}

func (c *AutarcoCollector) collectSite(
	ctx context.Context,
	client *autarco.AutarcoClient,
	credential *model.AutarcoCredential,
	account autarco.AccountSite,
	now time.Time,
) ([]interface{}, model.SiteItem, error) {
	var (
		site      *autarco.Site
		inverters autarco.Inverters
		solar     *autarco.Solar
	)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) (err error) {
		site, err = client.GetSite(ctx, account.PublicKey)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		inverters, err = client.GetInverters(ctx, account.PublicKey)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		solar, err = client.GetSolar(ctx, account.PublicKey)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, model.SiteItem{}, err
	}

	siteName := pointy.String(account.SystemName)
	if !util.IsEmpty(site.Name) {
		siteName = pointy.String(site.Name)
	}

	siteDoc := NewSiteItem(now, credential.Owner, account, site, inverters.Len())
	docs := []interface{}{siteDoc}
	for _, inverter := range inverters.All() {
		docs = append(docs, NewInverterItem(now, credential.Owner, account.PublicKey, siteName, inverter))
	}
	docs = append(docs, NewSolarItem(now, credential.Owner, account.PublicKey, siteName, solar))

	if site.HasBattery {
		battery, err := client.GetBattery(ctx, account.PublicKey)
		if err != nil {
			return nil, model.SiteItem{}, fmt.Errorf("battery: %w", err)
		}
		docs = append(docs, NewBatteryItem(now, credential.Owner, account.PublicKey, siteName, battery))
	}

	return docs, siteDoc, nil
}

func NewSiteItem(now time.Time, owner string, account autarco.AccountSite, site *autarco.Site, inverterCount int) model.SiteItem {
	item := model.SiteItem{
		Meta:                model.NewMeta(now, model.DataTypeSite, owner),
		SiteID:              account.PublicKey,
		AccountSiteID:       account.SiteID,
		Name:                pointy.String(site.Name),
		Retailer:            pointy.String(account.Retailer),
		Health:              account.Health,
		HasBattery:          site.HasBattery,
		HasConsumptionMeter: site.HasConsumptionMeter,
		InverterCount:       inverterCount,
	}

	if !util.IsEmpty(site.Timezone) {
		item.Timezone = pointy.String(site.Timezone)
	}

	if site.Address != nil {
		item.Street = pointy.String(site.Address.Street)
		item.ZipCode = pointy.String(site.Address.ZipCode)
		item.City = pointy.String(site.Address.City)
		item.Country = pointy.String(site.Address.Country)
		item.State = site.Address.State
	}

	if site.CreatedAt != nil {
		created := site.CreatedAt.Time
		item.CreatedDate = &created
	}

	return item
}

func NewInverterItem(now time.Time, owner, publicKey string, siteName *string, inverter autarco.Inverter) model.InverterItem {
	status := model.InverterStatusOnline
	switch {
	case inverter.GridTurnedOff:
		status = model.InverterStatusGridOff
	case inverter.Health != nil && *inverter.Health != setting.HealthOK:
		status = model.InverterStatusAlarm
	}

	return model.InverterItem{
		Meta:            model.NewMeta(now, model.DataTypeInverter, owner),
		SiteID:          publicKey,
		SiteName:        siteName,
		SerialNumber:    inverter.SerialNumber,
		CurrentPower:    pointy.Float64(float64(inverter.OutACPower) / 1000), // W to kW
		TotalProduction: pointy.Float64(float64(inverter.OutACEnergyTotal)),
		GridTurnedOff:   inverter.GridTurnedOff,
		Health:          inverter.Health,
		Status:          status,
	}
}

func NewSolarItem(now time.Time, owner, publicKey string, siteName *string, solar *autarco.Solar) model.SolarItem {
	return model.SolarItem{
		Meta:              model.NewMeta(now, model.DataTypeSolar, owner),
		SiteID:            publicKey,
		SiteName:          siteName,
		CurrentPower:      pointy.Float64(float64(solar.PowerProduction) / 1000), // W to kW
		DailyProduction:   pointy.Float64(float64(solar.EnergyProductionToday)),
		MonthlyProduction: pointy.Float64(float64(solar.EnergyProductionMonth)),
		TotalProduction:   pointy.Float64(float64(solar.EnergyProductionTotal)),
	}
}

func NewBatteryItem(now time.Time, owner, publicKey string, siteName *string, battery *autarco.Battery) model.BatteryItem {
	return model.BatteryItem{
		Meta:            model.NewMeta(now, model.DataTypeBattery, owner),
		SiteID:          publicKey,
		SiteName:        siteName,
		FlowNow:         pointy.Int(battery.FlowNow),
		NetChargedNow:   pointy.Int(battery.NetChargedNow),
		StateOfCharge:   pointy.Int(battery.StateOfCharge),
		DischargedToday: pointy.Int(battery.DischargedToday),
		DischargedMonth: pointy.Int(battery.DischargedMonth),
		DischargedTotal: pointy.Int(battery.DischargedTotal),
		ChargedToday:    pointy.Int(battery.ChargedToday),
		ChargedMonth:    pointy.Int(battery.ChargedMonth),
		ChargedTotal:    pointy.Int(battery.ChargedTotal),
	}
}
