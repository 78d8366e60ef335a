package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tenzir-community/tenzirgo/op"
)

func TestThrottleSendsUpToAllowance(t *testing.T) {
	ctrl := &fakeController{now: time.Unix(0, 0)}
	th := Throttle(4, time.Second)
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		return op.ProductiveBytes([]byte("12345678")), nil
	})
	gen, err := th.Instantiate(input, ctrl)
	require.NoError(t, err)

	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Len(t, y.Element.Bytes, 4)
}

func TestThrottleSuspendsThenResumesNextWindow(t *testing.T) {
	ctrl := &fakeController{now: time.Unix(0, 0)}
	th := Throttle(4, time.Second)
	input := op.GeneratorFunc(func(ctx context.Context) (op.Yield, error) {
		return op.ProductiveBytes([]byte("12345678")), nil
	})
	gen, err := th.Instantiate(input, ctrl)
	require.NoError(t, err)

	y, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Len(t, y.Element.Bytes, 4)

	// The window's allowance is exhausted; the remaining pending bytes
	// force a suspend until the window rolls over.
	y, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Suspended, y.Kind)

	// Still within the same window: stays suspended.
	ctrl.now = ctrl.now.Add(500 * time.Millisecond)
	y, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Suspended, y.Kind)

	// Window rolls over: resumes and sends the rest.
	ctrl.now = ctrl.now.Add(600 * time.Millisecond)
	y, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, op.Productive, y.Kind)
	require.Len(t, y.Element.Bytes, 4)
}
