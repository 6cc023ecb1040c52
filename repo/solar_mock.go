package repo

import (
	"sync"

	"github.com/HavvokLab/autarco/model"
)

// SolarMock keeps indexed documents in memory, keyed by index name.
type SolarMock struct {
	mu       sync.Mutex
	Indexed  map[string][]interface{}
	Stations []model.SiteItem
	Err      error
}

func NewSolarMockRepo() *SolarMock {
	return &SolarMock{Indexed: make(map[string][]interface{})}
}

func (r *SolarMock) BulkIndex(index string, docs []interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.Indexed[index] = append(r.Indexed[index], docs...)
	return nil
}

func (r *SolarMock) UpsertSiteStation(docs []model.SiteItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.Stations = append(r.Stations, docs...)
	return nil
}

// Documents returns every document indexed so far, across indices.
func (r *SolarMock) Documents() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make([]interface{}, 0)
	for _, indexed := range r.Indexed {
		docs = append(docs, indexed...)
	}
	return docs
}
