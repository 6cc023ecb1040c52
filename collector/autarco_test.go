package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/repo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"
)

const batterySite = `{
  "public_key": "site_key_2",
  "name": "Cabin",
  "has_consumption_meter": false,
  "has_battery": true,
  "timezone": "Europe/Amsterdam"
}`

var testNow = time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

func fixture(t *testing.T, name string) string {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join("..", "api", "autarco", "testdata", name))
	require.NoError(t, err)
	return string(buf)
}

func accountRoutes(t *testing.T) map[string]string {
	return map[string]string{
		"/api/site/":                       fixture(t, "account.json"),
		"/api/site/site_key_1/":            fixture(t, "site.json"),
		"/api/site/site_key_1/power":       fixture(t, "power.json"),
		"/api/site/site_key_1/kpis/power":  fixture(t, "kpis_power.json"),
		"/api/site/site_key_1/kpis/energy": fixture(t, "kpis_energy.json"),
		"/api/site/site_key_2/":            batterySite,
		"/api/site/site_key_2/power":       fixture(t, "legacy_power.json"),
		"/api/site/site_key_2/kpis/power":  fixture(t, "battery/kpis_power.json"),
		"/api/site/site_key_2/kpis/energy": fixture(t, "battery/kpis_energy.json"),
	}
}

func newAutarcoServer(t *testing.T, routes map[string]string, status map[string]int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestCollector(ts *httptest.Server, solarRepo repo.SolarRepo) *AutarcoCollector {
	return NewAutarcoCollector(
		solarRepo,
		WithWorkers(2),
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return testNow }),
		WithClientOptions(autarco.WithBaseURL(ts.URL+"/api/site/")),
	)
}

var testCredential = &model.AutarcoCredential{Username: "test@autarco.com", Password: "energy", Owner: "TRUE"}

func countByType(docs []interface{}) map[string]int {
	counts := map[string]int{}
	for _, doc := range docs {
		switch doc.(type) {
		case model.SiteItem:
			counts[model.DataTypeSite]++
		case model.InverterItem:
			counts[model.DataTypeInverter]++
		case model.SolarItem:
			counts[model.DataTypeSolar]++
		case model.BatteryItem:
			counts[model.DataTypeBattery]++
		}
	}
	return counts
}

func TestExecute(t *testing.T) {
	ts := newAutarcoServer(t, accountRoutes(t), nil)
	solarRepo := repo.NewSolarMockRepo()

	require.NoError(t, newTestCollector(ts, solarRepo).Execute(context.Background(), testCredential))

	docs := solarRepo.Indexed["solar-2024.05.01"]
	assert.Equal(t, map[string]int{
		model.DataTypeSite:     2,
		model.DataTypeInverter: 4,
		model.DataTypeSolar:    2,
		model.DataTypeBattery:  1,
	}, countByType(docs))
	assert.Len(t, solarRepo.Stations, 2)

	for _, doc := range docs {
		switch item := doc.(type) {
		case model.SolarItem:
			if item.SiteID == "site_key_1" {
				assert.Equal(t, pointy.Float64(0.2), item.CurrentPower)
				assert.Equal(t, pointy.Float64(4), item.DailyProduction)
				assert.Equal(t, pointy.Float64(10379), item.TotalProduction)
			}
		case model.BatteryItem:
			assert.Equal(t, "site_key_2", item.SiteID)
			assert.Equal(t, pointy.Int(68), item.StateOfCharge)
			assert.Equal(t, pointy.Int(-450), item.FlowNow)
		case model.InverterItem:
			if item.SerialNumber == "UIAD7654321" {
				assert.Equal(t, model.InverterStatusGridOff, item.Status)
				assert.Equal(t, "Home", *item.SiteName)
			}
			assert.Equal(t, "TRUE", item.Owner)
			assert.Equal(t, testNow, item.Timestamp)
		}
	}
}

func TestExecuteSkipsFailingSite(t *testing.T) {
	ts := newAutarcoServer(t, accountRoutes(t), map[string]int{"/api/site/site_key_2/": http.StatusInternalServerError})
	solarRepo := repo.NewSolarMockRepo()

	require.NoError(t, newTestCollector(ts, solarRepo).Execute(context.Background(), testCredential))

	docs := solarRepo.Indexed["solar-2024.05.01"]
	assert.Equal(t, map[string]int{
		model.DataTypeSite:     1,
		model.DataTypeInverter: 2,
		model.DataTypeSolar:    1,
	}, countByType(docs))
	require.Len(t, solarRepo.Stations, 1)
	assert.Equal(t, "site_key_1", solarRepo.Stations[0].SiteID)
	assert.Equal(t, "Amsterdam", *solarRepo.Stations[0].City)
}

func TestExecuteUnauthorized(t *testing.T) {
	ts := newAutarcoServer(t, accountRoutes(t), map[string]int{"/api/site/": http.StatusUnauthorized})
	solarRepo := repo.NewSolarMockRepo()

	err := newTestCollector(ts, solarRepo).Execute(context.Background(), testCredential)
	var authErr *autarco.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, autarco.ErrAutarco)
	assert.Empty(t, solarRepo.Documents())
}

func TestNewInverterItemStatus(t *testing.T) {
	name := pointy.String("Home")
	online := NewInverterItem(testNow, "TRUE", "k", name, autarco.Inverter{SerialNumber: "A", OutACPower: 1500, Health: pointy.String("OK")})
	assert.Equal(t, model.InverterStatusOnline, online.Status)
	assert.Equal(t, pointy.Float64(1.5), online.CurrentPower)

	alarm := NewInverterItem(testNow, "TRUE", "k", name, autarco.Inverter{SerialNumber: "B", Health: pointy.String("ERROR")})
	assert.Equal(t, model.InverterStatusAlarm, alarm.Status)

	unknown := NewInverterItem(testNow, "TRUE", "k", name, autarco.Inverter{SerialNumber: "C"})
	assert.Equal(t, model.InverterStatusOnline, unknown.Status)
}
