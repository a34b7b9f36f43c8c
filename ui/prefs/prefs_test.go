package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := Load()
	assert.Equal(t, 6.0, p.FloatWithFallback("missing", 6.0))
	assert.Equal(t, "", p.String("missing"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	p := Load()
	p.SetFloat("arrowThickness", 12)
	p.SetString("arrowColor", "#34c759")
	require.NoError(t, p.Save())

	q := Load()
	assert.Equal(t, 12.0, q.FloatWithFallback("arrowThickness", 6.0))
	assert.Equal(t, "#34c759", q.String("arrowColor"))
}
