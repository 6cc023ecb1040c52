package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/HavvokLab/autarco/api/autarco"
	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureClient(t *testing.T, path, fixture string) *autarco.AutarcoClient {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "..", "api", "autarco", "testdata", fixture))
	require.NoError(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)

	client := autarco.NewAutarcoClient("test@autarco.com", "energy", autarco.WithBaseURL(ts.URL+"/api/site/"))
	t.Cleanup(client.Close)
	return client
}

func TestExportEnergy(t *testing.T) {
	client := newFixtureClient(t, "/api/site/fake_key/energy", "energy.json")

	var buf bytes.Buffer
	require.NoError(t, export(context.Background(), client, "fake_key", "energy", "", &buf))
	assert.Equal(t, "inverter,date,energy_kwh\n"+
		"UIAD1234567,2024-05-01,18\n"+
		"UIAD1234567,2024-05-02,21\n"+
		"UIAD1234567,2024-05-03,\n", buf.String())
}

func TestExportPower(t *testing.T) {
	client := newFixtureClient(t, "/api/site/fake_key/power", "power.json")

	var buf bytes.Buffer
	require.NoError(t, export(context.Background(), client, "fake_key", "power", autarco.QueryRangeDay, &buf))

	var rows []*PowerRow
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &rows))
	require.Len(t, rows, 6)
	assert.Equal(t, PowerRow{Inverter: "UIAD1234567", Timestamp: "2024-05-01T10:00:00", Power: "120"}, *rows[0])
	assert.Equal(t, "", rows[2].Power)
	assert.Equal(t, "UIAD7654321", rows[3].Inverter)
}

func TestRowsWithoutGraph(t *testing.T) {
	assert.Empty(t, PowerRows(&autarco.Stats{}))
	assert.Empty(t, EnergyRows(&autarco.Stats{}))
}

func TestExportUnknownKind(t *testing.T) {
	client := newFixtureClient(t, "/api/site/fake_key/energy", "energy.json")
	assert.Error(t, export(context.Background(), client, "fake_key", "voltage", "", &bytes.Buffer{}))
}
