package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeAddress(t *testing.T) {
	region := MissouriRegion()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"appends state code", "201 W Capitol Ave, Jefferson City", "201 W Capitol Ave, Jefferson City, MO"},
		{"collapses commas and spaces", "201 W Capitol Ave,,  Jefferson   City,", "201 W Capitol Ave, Jefferson City, MO"},
		{"keeps existing code", "201 W Capitol Ave, Jefferson City, MO 65101", "201 W Capitol Ave, Jefferson City, MO 65101"},
		{"keeps existing state name", "Jefferson City, Missouri", "Jefferson City, Missouri"},
		{"code must be a whole word", "12 Moberly Ave, Kansas City", "12 Moberly Ave, Kansas City, MO"},
		{"highway route is not the state", "403 MO-134, Kaiser", "403 MO-134, Kaiser, MO"},
		{"state route with trailing code", "403 MO-134, Kaiser, MO 65047", "403 MO-134, Kaiser, MO 65047"},
		{"zip plus four", "Jefferson City, MO 65101-1234", "Jefferson City, MO 65101-1234"},
		{"state name mid address", "100 Missouri Ave, Joplin", "100 Missouri Ave, Joplin, MO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeAddress(tt.in, region)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeAddress_Invalid(t *testing.T) {
	for _, in := range []string{"", "FILL", "N/A", "Unknown", "abc", "Can't Find"} {
		_, err := SanitizeAddress(in, MissouriRegion())
		assert.ErrorIs(t, err, ErrInvalidAddress, in)
	}
}

func TestNormalizeAddressKey(t *testing.T) {
	assert.Equal(t, "201 w capitol ave, jefferson city, mo", NormalizeAddressKey("  201 W  Capitol Ave,\tJefferson City, MO "))
	assert.Equal(t, NormalizeAddressKey("A  B"), NormalizeAddressKey("a b"))
}

func TestStateNameVariant(t *testing.T) {
	region := MissouriRegion()
	assert.Equal(t, "201 W Capitol Ave, Jefferson City, Missouri 65101",
		StateNameVariant("201 W Capitol Ave, Jefferson City, MO 65101", region))
	assert.Equal(t, "Jefferson City, Missouri", StateNameVariant("Jefferson City", region))
	assert.Equal(t, "Jefferson City, Missouri", StateNameVariant("Jefferson City, Missouri", region))
}

func TestStateNameVariant_HighwayRoutes(t *testing.T) {
	region := MissouriRegion()
	assert.Equal(t, "403 MO-134, Kaiser, Missouri 65047",
		StateNameVariant("403 MO-134, Kaiser, MO 65047", region))
	assert.Equal(t, "403 MO-134, Kaiser, Missouri",
		StateNameVariant("403 MO-134, Kaiser, MO", region))
	assert.Equal(t, "Hwy MO-5 and MO-7, Camdenton, Missouri",
		StateNameVariant("Hwy MO-5 and MO-7, Camdenton", region))
}

func TestStateQualifierCompiledOnce(t *testing.T) {
	region := MissouriRegion()
	assert.Same(t, qualifierFor(region), qualifierFor(region))

	other := Region{StateCode: "KS", StateName: "Kansas"}
	assert.NotSame(t, qualifierFor(region), qualifierFor(other))
	assert.Equal(t, "Wichita, Kansas 67202", StateNameVariant("Wichita, KS 67202", other))
}
