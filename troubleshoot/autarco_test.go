package troubleshoot

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

func fixture(t *testing.T, name string) string {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join("..", "api", "autarco", "testdata", name))
	require.NoError(t, err)
	return string(buf)
}

func TestExecuteByRange(t *testing.T) {
	routes := map[string]string{
		"/api/site/":                  fixture(t, "account.json"),
		"/api/site/site_key_1/energy": fixture(t, "energy.json"),
	}
	var ranges []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if q := r.URL.Query().Get("r"); q != "" {
			ranges = append(ranges, q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	solarRepo := repo.NewSolarMockRepo()
	serv := NewAutarcoTroubleshoot(solarRepo,
		WithLogger(zerolog.Nop()),
		WithClientOptions(autarco.WithBaseURL(ts.URL+"/api/site/")),
	)

	start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC)
	cred := &model.AutarcoCredential{Username: "test@autarco.com", Password: "energy", Owner: "TRUE"}
	require.NoError(t, serv.ExecuteByRange(context.Background(), cred, start, end, autarco.QueryRangeMonth))

	assert.Equal(t, []string{"month"}, ranges)
	require.Len(t, solarRepo.Indexed, 2)

	first := solarRepo.Indexed["solar-2024.05.01"]
	require.Len(t, first, 1)
	item := first[0].(model.EnergyItem)
	assert.Equal(t, "site_key_1", item.SiteID)
	assert.Equal(t, "UIAD1234567", item.SerialNumber)
	assert.Equal(t, pointy.Float64(18), item.DailyProduction)
	assert.Equal(t, start, item.Timestamp)

	assert.Len(t, solarRepo.Indexed["solar-2024.05.02"], 1)
}

func TestEnergyDocumentsWithoutGraph(t *testing.T) {
	docs := EnergyDocuments("TRUE", autarco.AccountSite{PublicKey: "k"}, &autarco.Stats{}, time.Time{}, time.Now())
	assert.Empty(t, docs)
}
