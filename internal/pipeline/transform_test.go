package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
)

const testCSV = `"Organization OR Place > Civic Structure > Museum OR Place > LocalBusiness > Library","address OR postalAddress (streetAddress OR postOfficeBoxNumber)",addressLocality,COUNTY,postalCode,SITE TYPE CATEGORY,GeoCoordinates (DMM)
Boonville Depot,,Boonville,Cooper,65233,Depot,N39 11 23.6 W93 52 33.8
Capitol,201 W Capitol Ave,Jefferson City,Cole,65101,Civic Structure,FILL
short,row
Nowhere,,,,,Museum,N/A
Arch,,St Louis,,63102,Monument,"38.6247, -90.1848"
`

func newTestTransformer() *Transformer {
	return NewTransformer(domain.MissouriRegion(), observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTransformer_Transform(t *testing.T) {
	rows, err := Decode("sites.csv", []byte(testCSV))
	require.NoError(t, err)

	res := newTestTransformer().Transform(rows)

	assert.Equal(t, 5, res.Stats.Rows)
	assert.Equal(t, 1, res.Stats.ShortRows)
	assert.Equal(t, 1, res.Stats.Unplaceable)
	assert.Equal(t, 1, res.Stats.Pending)
	assert.Equal(t, 1, res.Stats.Methods[domain.MethodDMS])
	assert.Equal(t, 1, res.Stats.Methods[domain.MethodPair])
	assert.Equal(t, 1, res.Stats.Methods[domain.MethodNone])

	require.Len(t, res.Records, 3)

	depot := res.Records[0]
	assert.Equal(t, "location-1", depot.ID)
	p, ok := depot.Placement.Point()
	require.True(t, ok)
	assert.InDelta(t, 39.1899, p.Lat, 1e-4)
	assert.InDelta(t, -93.8761, p.Lng, 1e-4)

	capitol := res.Records[1]
	assert.Equal(t, domain.PendingGeocode, capitol.Placement.Kind())
	assert.Equal(t, "201 W Capitol Ave, Jefferson City, Cole, MO 65101", capitol.Placement.FullAddress())

	assert.Equal(t, "location-5", res.Records[2].ID)
}

func TestTransformer_Empty(t *testing.T) {
	res := newTestTransformer().Transform(nil)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Stats.Rows)
}
