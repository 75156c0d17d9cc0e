package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInCity(t *testing.T) {
	// Zócalo.
	assert.True(t, InCity(-99.1332, 19.4326))
	// Xochimilco, southern edge but inside.
	assert.True(t, InCity(-99.1070, 19.2570))
	// Monterrey.
	assert.False(t, InCity(-100.3161, 25.6866))
	// Swapped lat/lng lands outside.
	assert.False(t, InCity(19.4326, -99.1332))
	assert.False(t, InCity(0, 0))
}
