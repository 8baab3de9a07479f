package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLOCURLForCategory(t *testing.T) {
	assert.Equal(t, "https://www.loc.gov/collections/?q=museum", LOCURLForCategory(" Museum "))
	assert.Equal(t, "https://www.loc.gov/search/?q=Historic%20Home&fo=json", LOCURLForCategory("Historic Home"))
	assert.Equal(t, "https://www.loc.gov/search/?q=Art%20%26%20Culture&fo=json", LOCURLForCategory("Art & Culture"))
	assert.Empty(t, LOCURLForCategory("  "))
}

func TestSampleRecords(t *testing.T) {
	a := SampleRecords()
	b := SampleRecords()

	assert.Len(t, a, 15)
	assert.Equal(t, a, b)
	a[0].OrganizationName = "changed"
	assert.Equal(t, "Missouri State Capitol", b[0].OrganizationName)

	box := MissouriRegion().Bounds
	for _, r := range b {
		p, ok := r.Placement.Point()
		assert.True(t, ok, r.ID)
		assert.True(t, box.Contains(p), r.ID)
	}
}
