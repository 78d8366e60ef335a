package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/op"
)

func TestVersionEmitsOneRowThenDone(t *testing.T) {
	v := Version(BuildInfo{Version: "1.2.3", Tag: "stable", Major: 1, Minor: 2, Patch: 3, Features: []string{"throttle"}})
	ctrl := &fakeController{}
	gen, err := v.Instantiate(nil, ctrl)
	require.NoError(t, err)

	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Equal(t, 1, y.Element.Events.Rows())
	require.Equal(t, "tenzir.version", y.Element.Events.Schema().Name())

	_, idx, ok := y.Element.Events.Schema().Resolve("version")
	require.True(t, ok)
	s, ok := y.Element.Events.Columns()[idx].At(0).Materialize().String()
	require.True(t, ok)
	require.Equal(t, "1.2.3", s)

	y, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Done, y.Kind)
}
