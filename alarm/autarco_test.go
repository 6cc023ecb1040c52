package alarm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/repo"
	"github.com/HavvokLab/autarco/setting"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"
)

const healthyPower = `{
  "inverters": {
    "UIAD1234567": {"sn": "UIAD1234567", "out_ac_power": 200, "out_ac_energy_total": 10379, "grid_turned_off": false, "health": "OK"},
    "UIAD7654321": {"sn": "UIAD7654321", "out_ac_power": 150, "out_ac_energy_total": 8120, "grid_turned_off": false, "health": "OK"}
  }
}`

type trap struct {
	device   string
	alert    string
	payload  string
	severity string
}

type fakeSnmp struct {
	mu    sync.Mutex
	traps []trap
}

func (f *fakeSnmp) SendTrap(deviceName, alertName, description, severity, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traps = append(f.traps, trap{deviceName, alertName, description, severity})
}

func (f *fakeSnmp) take() []trap {
	f.mu.Lock()
	defer f.mu.Unlock()
	traps := f.traps
	f.traps = nil
	return traps
}

func countSeverity(traps []trap, severity string) int {
	n := 0
	for _, tr := range traps {
		if tr.severity == severity {
			n++
		}
	}
	return n
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join("..", "api", "autarco", "testdata", name))
	require.NoError(t, err)
	return string(buf)
}

type server struct {
	mu     sync.Mutex
	routes map[string]string
}

func (s *server) set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = body
}

func newServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()
	srv := &server{routes: map[string]string{
		"/api/site/":                 fixture(t, "account.json"),
		"/api/site/site_key_1/power": fixture(t, "power.json"),
		"/api/site/site_key_2/power": fixture(t, "legacy_power.json"),
	}}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		body, ok := srv.routes[r.URL.Path]
		srv.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return srv, ts
}

var testCredential = &model.AutarcoCredential{Username: "test@autarco.com", Password: "energy", Owner: "TRUE"}

func TestRunRaisesAndClears(t *testing.T) {
	srv, ts := newServer(t)
	snmp := &fakeSnmp{}
	state := repo.NewAlarmStateMockRepo()
	solarRepo := repo.NewSolarMockRepo()
	now := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	service := NewAutarcoAlarm(solarRepo, state, snmp,
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return now }),
		WithClientOptions(autarco.WithBaseURL(ts.URL+"/api/site/")),
	)

	require.NoError(t, service.Run(context.Background(), testCredential))

	raised := snmp.take()
	assert.Len(t, raised, 3)
	assert.Equal(t, 3, countSeverity(raised, infra.MajorSeverity))
	assert.Contains(t, raised, trap{"Home", setting.AlarmNameGridOff, "Autarco,site_key_1,UIAD7654321,grid turned off", infra.MajorSeverity})
	assert.Contains(t, raised, trap{"Home", setting.AlarmNameHealth, "Autarco,site_key_1,UIAD7654321,health ERROR", infra.MajorSeverity})
	assert.Contains(t, raised, trap{"Cabin", setting.AlarmNameGridOff, "Autarco,site_key_2,SN456,grid turned off", infra.MajorSeverity})
	assert.Len(t, state.States, 3)
	assert.Equal(t, "Home,2024-05-01 10:00:00", state.States["Autarco,site_key_1,UIAD7654321,Autarco-GridOff"])
	assert.Len(t, solarRepo.Indexed["alarm-2024.05.01"], 3)

	srv.set("/api/site/site_key_1/power", healthyPower)
	require.NoError(t, service.Run(context.Background(), testCredential))

	second := snmp.take()
	assert.Equal(t, 1, countSeverity(second, infra.MajorSeverity))
	assert.Equal(t, 2, countSeverity(second, infra.ClearSeverity))
	assert.Contains(t, second, trap{"Home", setting.AlarmNameHealth, "Autarco,site_key_1,UIAD7654321,cleared", infra.ClearSeverity})
	assert.Equal(t, map[string]string{
		"Autarco,site_key_2,SN456,Autarco-GridOff": "Cabin,2024-05-01 10:00:00",
	}, state.States)
}

func TestRunSkipsFailingSite(t *testing.T) {
	srv, ts := newServer(t)
	srv.set("/api/site/site_key_2/power", "not json")
	snmp := &fakeSnmp{}
	state := repo.NewAlarmStateMockRepo()

	service := NewAutarcoAlarm(repo.NewSolarMockRepo(), state, snmp,
		WithLogger(zerolog.Nop()),
		WithClientOptions(autarco.WithBaseURL(ts.URL+"/api/site/")),
	)

	require.NoError(t, service.Run(context.Background(), testCredential))
	assert.Len(t, snmp.take(), 2)
	assert.Len(t, state.States, 2)
}

func TestInverterAlarms(t *testing.T) {
	assert.Empty(t, inverterAlarms("k", autarco.Inverter{SerialNumber: "A"}))
	assert.Empty(t, inverterAlarms("k", autarco.Inverter{SerialNumber: "A", Health: pointy.String("OK")}))

	alarms := inverterAlarms("k", autarco.Inverter{SerialNumber: "A", GridTurnedOff: true, Health: pointy.String("WARNING")})
	require.Len(t, alarms, 2)
	assert.Equal(t, "Autarco,k,A,Autarco-GridOff", alarms[0].key)
	assert.Equal(t, "Autarco,k,A,health WARNING", alarms[1].payload)
}
