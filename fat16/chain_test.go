package fat16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDataEntry(t *testing.T) {
	assert.False(t, isDataEntry(0x0000))
	assert.True(t, isDataEntry(0x0002))
	assert.True(t, isDataEntry(0xFFEF))
	assert.False(t, isDataEntry(0xFFF0))
}

func TestIsEndOfChain(t *testing.T) {
	assert.False(t, isEndOfChain(0xFFF7))
	assert.True(t, isEndOfChain(0xFFF8))
	assert.True(t, isEndOfChain(0xFFFF))
}

func TestIsReserved(t *testing.T) {
	assert.True(t, isReserved(0xFFF0))
	assert.True(t, isReserved(0xFFF6))
	assert.False(t, isReserved(0xFFF7))
	assert.False(t, isReserved(0xFFEF))
}
