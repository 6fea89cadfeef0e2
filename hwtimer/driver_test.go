package hwtimer_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cosmikwolf/exprbench/hwtimer"
	"github.com/cosmikwolf/exprbench/mocker"
	"github.com/cosmikwolf/exprbench/simtimer"
)

const fullPeriod = uint64(hwtimer.CounterMax) + 1

// newRig wires a driver to a manually stepped device, substituting the
// calibration busy-wait so verification advances the model.
func newRig() (*simtimer.Device, *hwtimer.Driver, func()) {
	dev := simtimer.NewDevice(hwtimer.PrimaryBase, hwtimer.FallbackBase)
	restore := mocker.ReplaceItem(hwtimer.BusyWaitHook, func(spins int) { dev.Step(uint64(spins)) })
	drv := hwtimer.NewDriver(dev)
	drv.SetDiagSink(io.Discard)
	return dev, drv, restore
}

func TestInitPicksPrimary(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()

	assertT.NoError(drv.Init())
	assertT.EqualValues(hwtimer.PrimaryBase, drv.Base())
	assertT.NotZero(dev.Read32(hwtimer.PrimaryBase+hwtimer.RegControl) & hwtimer.CtlEnable)
}

func TestInitIdempotent(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()

	assertT.NoError(drv.Init())
	dev.Step(fullPeriod)
	assertT.EqualValues(1, drv.Overflows())

	// second call is a no-op: timer stays enabled, overflow count keeps
	assertT.NoError(drv.Init())
	assertT.EqualValues(1, drv.Overflows())
	assertT.NotZero(dev.Read32(drv.Base()+hwtimer.RegControl) & hwtimer.CtlEnable)
}

func TestInitFallsBack(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()

	dev.KillChannel(hwtimer.PrimaryBase)

	assertT.NoError(drv.Init())
	assertT.EqualValues(hwtimer.FallbackBase, drv.Base())

	drv.Start()
	dev.Step(123)
	assertT.EqualValues(123, drv.Stop())
}

func TestInitFatal(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()

	dev.KillChannel(hwtimer.PrimaryBase)
	dev.KillChannel(hwtimer.FallbackBase)

	assertT.ErrorIs(drv.Init(), hwtimer.ErrNoWorkingTimer)
}

func TestStartStopExact(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	drv.Start()
	dev.Step(5000)
	assertT.EqualValues(5000, drv.Stop())
	assertT.Zero(drv.ShortIntervals())
}

func TestChainedSessionsSum(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	// back-to-back sessions with no gap
	drv.Start()
	dev.Step(111)
	t1 := drv.Stop()
	drv.Start()
	dev.Step(222)
	t2 := drv.Stop()

	drv.Start()
	dev.Step(111)
	dev.Step(222)
	whole := drv.Stop()

	assertT.Equal(whole, t1+t2)
}

func TestOverflowHandlerEffects(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	dev.Step(fullPeriod)
	// exactly one count per wrap, interrupt acknowledged
	assertT.EqualValues(1, drv.Overflows())
	assertT.Zero(dev.Read32(drv.Base() + hwtimer.RegRIS))

	dev.Step(3 * fullPeriod)
	assertT.EqualValues(4, drv.Overflows())
}

func TestUnrecordedWrap(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	drv.Reset()
	dev.Step(100)
	drv.Start() // counter at CounterMax-100

	// wrap with the interrupt masked: the counter comes back above the
	// start value while the overflow count has not moved yet
	dev.SetMask(true)
	dev.Step(uint64(hwtimer.CounterMax-100) + 1 + 50)
	before := drv.Overflows()
	ticks := drv.Stop()

	assertT.EqualValues(hwtimer.CounterMax-49, ticks)
	assertT.Equal(before, drv.Overflows())

	// unmasking delivers the pended interrupt
	dev.SetMask(false)
	assertT.Equal(before+1, drv.Overflows())
	assertT.Zero(dev.Read32(drv.Base() + hwtimer.RegRIS))
}

func TestCheckRestoresEnable(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	base := drv.Base()
	before := dev.Read32(base + hwtimer.RegControl)
	dev.Step(100)
	dev.ClearEnable(base)

	drv.Check()

	assertT.Equal(before, dev.Read32(base+hwtimer.RegControl))
	assertT.EqualValues(1, drv.Repairs())
}

func TestCheckRepairsStall(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()

	var diag bytes.Buffer
	assertT.NoError(drv.Init())
	drv.SetDiagSink(&diag)

	dev.Step(100)
	drv.Check() // baseline, healthy
	assertT.Zero(drv.Repairs())

	dev.Stall(drv.Base())
	dev.Step(500) // no effect while stalled
	drv.Check()

	assertT.EqualValues(1, drv.Repairs())
	assertT.Contains(diag.String(), "stalled")
	// reprogrammed from scratch and counting again
	assertT.EqualValues(hwtimer.CounterMax, dev.Read32(drv.Base()+hwtimer.RegValue))
	dev.Step(10)
	assertT.EqualValues(hwtimer.CounterMax-10, dev.Read32(drv.Base()+hwtimer.RegValue))
}

func TestStartReenables(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	dev.ClearEnable(drv.Base())
	drv.Start()
	dev.Step(777)
	assertT.EqualValues(777, drv.Stop())
	assertT.EqualValues(1, drv.Repairs())
}

func TestStopSaturates(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()

	var diag bytes.Buffer
	assertT.NoError(drv.Init())
	drv.SetDiagSink(&diag)

	drv.Start()
	dev.Step(fullPeriod + 10)
	ticks := drv.Stop()

	assertT.EqualValues(uint32(hwtimer.CounterMax), ticks)
	assertT.EqualValues(1, drv.Saturations())
	assertT.Contains(diag.String(), "saturated")
}

func TestShortIntervalCounted(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	drv.Start()
	dev.Step(5)
	assertT.EqualValues(5, drv.Stop())
	assertT.EqualValues(1, drv.ShortIntervals())

	drv.ResetDiagnostics()
	assertT.Zero(drv.ShortIntervals())
}

func TestResetKeepsOverflowBookkeeping(t *testing.T) {
	assertT := assert.New(t)

	dev, drv, restore := newRig()
	defer restore()
	assertT.NoError(drv.Init())

	dev.Step(fullPeriod)
	assertT.EqualValues(1, drv.Overflows())

	drv.Reset()
	assertT.EqualValues(1, drv.Overflows())
	assertT.EqualValues(hwtimer.CounterMax, dev.Read32(drv.Base()+hwtimer.RegValue))
}
