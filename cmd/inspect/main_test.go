package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

const sampleCSV = `name,address,city,lat,lng,GeoCoordinates (DMM)
Boonville Depot,,Boonville,,,N39 11 23.6 W93 52 33.8
Capitol,201 W Capitol Ave,Jefferson City,,,FILL
Arch,,St Louis,38.6247,-90.1848,
short,row
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestRun_Summary(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-file", writeSample(t), "-center", "38.627,-90.1994", "-viewport"}, &out))

	s := out.String()
	assert.Contains(t, s, "data rows")
	assert.Contains(t, s, "method dms")
	assert.Contains(t, s, "rank mode")
	assert.Contains(t, s, "viewport")
	assert.Contains(t, s, "Boonville Depot")
	assert.Contains(t, s, "pending_geocode")
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-file", writeSample(t), "-json"}, &out))

	var recs []domain.LocationRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &recs))
	require.Len(t, recs, 3)
	assert.Equal(t, "location-1", recs[0].ID)
	assert.True(t, recs[1].NeedsGeocoding)
	assert.InDelta(t, 38.6247, recs[2].Lat, 1e-9)
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"-file", filepath.Join(t.TempDir(), "missing.csv")}, &out))
	assert.Error(t, run([]string{"-file", writeSample(t), "-center", "north"}, &out))
}

func TestParseCenter(t *testing.T) {
	p, err := parseCenter(" 38.627 , -90.1994 ")
	require.NoError(t, err)
	assert.Equal(t, domain.Point{Lat: 38.627, Lng: -90.1994}, p)

	_, err = parseCenter("38.627")
	assert.Error(t, err)
}
