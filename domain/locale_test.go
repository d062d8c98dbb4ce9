package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedCountry(t *testing.T) {
	t.Run("known codes are supported regardless of case", func(t *testing.T) {
		assert.True(t, IsSupportedCountry("ke"))
		assert.True(t, IsSupportedCountry("KE"))
		assert.True(t, IsSupportedCountry("us"))
		assert.True(t, IsSupportedCountry("fr"))
	})

	t.Run("unknown codes are rejected", func(t *testing.T) {
		assert.False(t, IsSupportedCountry("zz"))
		assert.False(t, IsSupportedCountry(""))
		assert.False(t, IsSupportedCountry("kenya"))
	})
}

func TestLookupRegion(t *testing.T) {
	t.Run("returns region metadata", func(t *testing.T) {
		r, ok := LookupRegion("ke")
		assert.True(t, ok)
		assert.Equal(t, "ke", r.Code)
		assert.Equal(t, "East Africa", r.Name)
	})

	t.Run("default country code is always supported", func(t *testing.T) {
		_, ok := LookupRegion(DefaultCountryCode)
		assert.True(t, ok)
	})
}
