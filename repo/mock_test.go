package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/HavvokLab/autarco/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolarMock(t *testing.T) {
	r := NewSolarMockRepo()
	require.NoError(t, r.BulkIndex("solar-2024.05.01", []interface{}{"a", "b"}))
	require.NoError(t, r.UpsertSiteStation([]model.SiteItem{{SiteID: "fake_key"}}))

	assert.Len(t, r.Documents(), 2)
	assert.Len(t, r.Stations, 1)

	r.Err = errors.New("down")
	assert.Error(t, r.BulkIndex("solar-2024.05.01", []interface{}{"c"}))
	assert.Len(t, r.Documents(), 2)
}

func TestAlarmStateMockScan(t *testing.T) {
	ctx := context.Background()
	r := NewAlarmStateMockRepo()
	require.NoError(t, r.Set(ctx, "Autarco,key1,SN1,Autarco-GridOff", "Home,2024-05-01"))
	require.NoError(t, r.Set(ctx, "Autarco,key2,SN2,Autarco-GridOff", "Work,2024-05-01"))

	states, err := r.Scan(ctx, "Autarco,key1,*")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Autarco,key1,SN1,Autarco-GridOff": "Home,2024-05-01"}, states)

	require.NoError(t, r.Delete(ctx, "Autarco,key1,SN1,Autarco-GridOff"))
	states, err = r.Scan(ctx, "Autarco,key1,*")
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.False(t, isRetryableError(errors.New("mapper_parsing_exception")))
}
