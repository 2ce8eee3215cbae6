package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soocke/pixel-tracker-go/config"
)

func TestConfigFields_UniqueIDsAndRoundTrip(t *testing.T) {
	base := config.DefaultSnapshot()
	seen := map[string]bool{}
	values := map[string]string{}
	for _, f := range ConfigFields {
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
		values[f.ID] = f.Get(base)
	}
	next, invalid := ApplyFields(base, values)
	assert.Empty(t, invalid)
	assert.Equal(t, *base, *next)
}

func TestApplyFields_ParsesAndReportsInvalid(t *testing.T) {
	base := config.DefaultSnapshot()
	next, invalid := ApplyFields(base, map[string]string{
		"minConfidence":  " 60 ",
		"fovEnabled":     "yes",
		"predictionAxes": "both",
		"xOffset":        "abc",
		"autoLabel":      "maybe",
	})
	assert.Equal(t, 60.0, next.MinConfidence)
	assert.True(t, next.FOVEnabled)
	assert.Equal(t, "both", next.PredictionAxes)
	assert.Equal(t, base.XOffset, next.XOffset)
	assert.ElementsMatch(t, []string{"xOffset", "autoLabel"}, invalid)
	assert.Equal(t, 45.0, base.MinConfidence, "base is not mutated")
}
