package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphic-ml/morphic/internal/backend/cpu"
	"github.com/morphic-ml/morphic/internal/transform"
	"github.com/morphic-ml/morphic/monitor"
)

func newInterp(opts ...transform.Option) *transform.Interpreter {
	return transform.NewInterpreter(cpu.New(), opts...)
}

func TestInterpreter_NestingLevels(t *testing.T) {
	interp := newInterp()

	assert.False(t, interp.TransformsActive())
	_, err := interp.CurrentLevel()
	assert.ErrorIs(t, err, transform.ErrNoActiveTransform)

	l1, err := interp.VmapIncrementNesting(3, transform.RandomnessError)
	require.NoError(t, err)
	assert.Equal(t, 1, l1)

	l2 := interp.GradIncrementNesting()
	assert.Equal(t, 2, l2)

	l3 := interp.JvpIncrementNesting()
	assert.Equal(t, 3, l3)

	l4 := interp.FuncIncrementNesting(true)
	assert.Equal(t, 4, l4)

	cur, err := interp.CurrentLevel()
	require.NoError(t, err)
	assert.Equal(t, 4, cur)
	assert.Equal(t, 4, interp.LayerCount())
	assert.True(t, interp.TransformsActive())

	// Pop in reverse order; each decrement returns the popped level.
	id, err := interp.FuncDecrementNesting()
	require.NoError(t, err)
	assert.Equal(t, 4, id)

	id, err = interp.JvpDecrementNesting()
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	id, err = interp.GradDecrementNesting()
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	id, err = interp.VmapDecrementNesting()
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	assert.False(t, interp.TransformsActive())
}

func TestInterpreter_DecrementKindMismatch(t *testing.T) {
	interp := newInterp()

	interp.GradIncrementNesting()
	_, err := interp.VmapDecrementNesting()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grad")

	// The layer is still there after a failed pop.
	assert.Equal(t, 1, interp.LayerCount())
	_, err = interp.GradDecrementNesting()
	require.NoError(t, err)
}

func TestInterpreter_DecrementEmptyStack(t *testing.T) {
	interp := newInterp()
	_, err := interp.GradDecrementNesting()
	assert.ErrorIs(t, err, transform.ErrNoActiveTransform)
}

func TestInterpreter_VmapBatchSizeValidation(t *testing.T) {
	interp := newInterp()
	_, err := interp.VmapIncrementNesting(0, transform.RandomnessError)
	assert.Error(t, err)
	assert.Equal(t, 0, interp.LayerCount())
}

func TestInterpreter_GradModeSaveRestore(t *testing.T) {
	interp := newInterp()

	interp.SetGradEnabled(false)
	interp.GradIncrementNesting()
	// Entering a grad scope enables gradient tracking.
	assert.True(t, interp.GradEnabled())

	_, err := interp.GradDecrementNesting()
	require.NoError(t, err)
	assert.False(t, interp.GradEnabled(), "grad mode should be restored on pop")
}

func TestInterpreter_FwdGradModeSaveRestore(t *testing.T) {
	interp := newInterp()

	interp.SetFwdGradEnabled(false)
	interp.JvpIncrementNesting()
	assert.True(t, interp.FwdGradEnabled())

	_, err := interp.JvpDecrementNesting()
	require.NoError(t, err)
	assert.False(t, interp.FwdGradEnabled())
}

func TestInterpreter_FallbackSwitches(t *testing.T) {
	interp := newInterp()

	assert.True(t, interp.VmapFallbackEnabled())
	assert.False(t, interp.VmapFallbackWarningEnabled())

	interp.SetVmapFallbackEnabled(false)
	interp.SetVmapFallbackWarningEnabled(true)
	assert.False(t, interp.VmapFallbackEnabled())
	assert.True(t, interp.VmapFallbackWarningEnabled())
}

func TestInterpreter_DumpStack(t *testing.T) {
	interp := newInterp()

	_, err := interp.VmapIncrementNesting(5, transform.RandomnessSame)
	require.NoError(t, err)
	interp.GradIncrementNesting()

	dump := interp.DumpStack()
	assert.Contains(t, dump, "vmap")
	assert.Contains(t, dump, "batch_size=5")
	assert.Contains(t, dump, "randomness=same")
	assert.Contains(t, dump, "grad")
}

func TestInterpreter_PushPopEvents(t *testing.T) {
	reg := monitor.NewRegistry()
	var got []string
	reg.Register(monitor.NewFuncHandler(func(e monitor.Event) error {
		got = append(got, e.Type+":"+e.Data["kind"].(string))
		return nil
	}))

	interp := newInterp(transform.WithEvents(reg))

	_, err := interp.VmapIncrementNesting(2, transform.RandomnessError)
	require.NoError(t, err)
	interp.GradIncrementNesting()
	_, err = interp.GradDecrementNesting()
	require.NoError(t, err)
	_, err = interp.VmapDecrementNesting()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"transform.push:vmap",
		"transform.push:grad",
		"transform.pop:grad",
		"transform.pop:vmap",
	}, got)
}

func TestParseRandomness(t *testing.T) {
	for name, want := range map[string]transform.Randomness{
		"error":     transform.RandomnessError,
		"same":      transform.RandomnessSame,
		"different": transform.RandomnessDifferent,
	} {
		got, err := transform.ParseRandomness(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}

	_, err := transform.ParseRandomness("sometimes")
	assert.Error(t, err)
}
