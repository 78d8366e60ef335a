package argparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsesPositionalAndNamedAndFlag(t *testing.T) {
	p := New("throttle", "")
	var bandwidth uint64
	var window time.Duration
	var realTime bool
	p.AddNamedUint64("--bandwidth", "bandwidth", &bandwidth)
	p.AddNamedDuration("--within,-w", "duration", &window)
	p.AddFlag("--real-time,-r", &realTime)

	err := p.Parse([]string{"--bandwidth", "1024", "-w", "2s", "--real-time"})
	require.NoError(t, err)
	require.Equal(t, uint64(1024), bandwidth)
	require.Equal(t, 2*time.Second, window)
	require.True(t, realTime)
}

func TestParsesInlineEqualsValue(t *testing.T) {
	p := New("hash", "")
	var field string
	p.AddNamed("--salt", "salt", &field)
	err := p.Parse([]string{"--salt=pepper"})
	require.NoError(t, err)
	require.Equal(t, "pepper", field)
}

func TestRequiredPositionalMissingErrors(t *testing.T) {
	p := New("throttle", "")
	var bandwidth string
	p.AddPositional("bandwidth", &bandwidth)
	err := p.Parse(nil)
	require.Error(t, err)
}

func TestOptionalPositionalMayBeOmitted(t *testing.T) {
	p := New("measure", "")
	var a, b string
	p.AddPositional("a", &a)
	p.AddOptionalPositional("b", &b)
	err := p.Parse([]string{"x"})
	require.NoError(t, err)
	require.Equal(t, "x", a)
	require.Equal(t, "", b)
}

func TestUnknownOptionErrors(t *testing.T) {
	p := New("drop", "")
	err := p.Parse([]string{"--nonexistent"})
	require.Error(t, err)
}

func TestUsageListsPositionalsAndOptions(t *testing.T) {
	p := New("throttle", "")
	var bandwidth string
	var window time.Duration
	p.AddPositional("bandwidth", &bandwidth)
	p.AddNamedDuration("--within", "duration", &window)
	require.Contains(t, p.Usage(), "throttle")
	require.Contains(t, p.Usage(), "<bandwidth>")
	require.Contains(t, p.Usage(), "--within")
}
