package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound1(t *testing.T) {
	assert.Equal(t, 22.9, Round1(70/(1.75*1.75)))
	assert.Equal(t, 23.1, Round1(75/(1.8*1.8)))
	assert.Equal(t, 120.0, Round1(120))
	assert.Equal(t, 33.3, Round1(100.0/300*100))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30m 0s", FormatDuration(1800))
	assert.Equal(t, "1m 5s", FormatDuration(65))
	assert.Equal(t, "0m 0s", FormatDuration(-3))
}

func TestFormatPace(t *testing.T) {
	assert.Equal(t, "1:30", FormatPace(90))
	assert.Equal(t, "2:00", FormatPace(120))
	assert.Equal(t, "1:05", FormatPace(64.6))
	assert.Equal(t, "--:--", FormatPace(math.Inf(1)))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "800m", FormatDistance(800))
	assert.Equal(t, "2.0km", FormatDistance(2000))
	assert.Equal(t, "12.3km", FormatDistance(12345))
}
