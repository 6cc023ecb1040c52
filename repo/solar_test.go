package repo

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/HavvokLab/autarco/model"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeElastic struct {
	mu       sync.Mutex
	indices  map[string]bool
	bulks    []string
	bulkResp string
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	name := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodHead:
		if f.indices[name] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		f.indices[name] = true
		io.WriteString(w, `{"acknowledged":true,"shards_acknowledged":true,"index":"`+name+`"}`)
	case name == "_bulk":
		body, _ := io.ReadAll(r.Body)
		f.bulks = append(f.bulks, string(body))
		io.WriteString(w, f.bulkResp)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newFakeElastic(t *testing.T, bulkResp string) (*fakeElastic, *solarRepo) {
	t.Helper()
	fake := &fakeElastic{indices: map[string]bool{}, bulkResp: bulkResp}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	client, err := elastic.NewClient(
		elastic.SetURL(ts.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	require.NoError(t, err)

	repo := NewSolarRepo(client)
	repo.retryDelay = 0
	return fake, repo
}

func TestBulkIndex(t *testing.T) {
	fake, repo := newFakeElastic(t, `{"took":1,"errors":false,"items":[]}`)

	docs := []interface{}{
		model.SolarItem{SiteID: "fake_key"},
		model.SolarItem{SiteID: "other_key"},
	}
	require.NoError(t, repo.BulkIndex("solar-2024.05.01", docs))

	assert.True(t, fake.indices["solar-2024.05.01"])
	require.Len(t, fake.bulks, 1)
	assert.Contains(t, fake.bulks[0], `"site_id":"fake_key"`)
	assert.Contains(t, fake.bulks[0], `"site_id":"other_key"`)
}

func TestBulkIndexEmpty(t *testing.T) {
	fake, repo := newFakeElastic(t, `{"took":1,"errors":false,"items":[]}`)
	require.NoError(t, repo.BulkIndex("solar-2024.05.01", nil))
	assert.Empty(t, fake.bulks)
	assert.Empty(t, fake.indices)
}

func TestBulkIndexFailedItems(t *testing.T) {
	_, repo := newFakeElastic(t, `{"took":1,"errors":true,"items":[{"index":{"_index":"solar-2024.05.01","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}]}`)

	err := repo.BulkIndex("solar-2024.05.01", []interface{}{model.SolarItem{SiteID: "fake_key"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestUpsertSiteStation(t *testing.T) {
	fake, repo := newFakeElastic(t, `{"took":1,"errors":false,"items":[]}`)

	require.NoError(t, repo.UpsertSiteStation([]model.SiteItem{{SiteID: "fake_key"}}))
	assert.True(t, fake.indices[model.SiteStationIndex])
	require.Len(t, fake.bulks, 1)
	assert.Contains(t, fake.bulks[0], `"_id":"fake_key"`)
	assert.Contains(t, fake.bulks[0], `"doc_as_upsert":true`)
}
