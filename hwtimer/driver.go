package hwtimer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

const (
	// control word programmed for measurement
	runControl = CtlSize32 | CtlPeriodic | CtlIntEnable | CtlEnable
	// same configuration without the interrupt line, used while the
	// counter is being verified and no handler is bound yet
	probeControl = CtlSize32 | CtlPeriodic | CtlEnable

	verifySpins  = 5000 // busy-wait length between the two verification reads
	warmupCycles = 8    // discarded measurement cycles after a successful Init
	shortTicks   = 10   // intervals below this count as suspicious
)

// ErrNoWorkingTimer is returned by Init when no candidate base
// verifies. Benchmarking cannot proceed without a working clock.
var ErrNoWorkingTimer = errors.New("hwtimer: no candidate timer base passed verification")

// Substituted in unit tests to drive a manually stepped device model.
var busyWait = func(spins int) {
	for i := 0; i < spins; i++ {
		waitSink++
	}
}

var waitSink uint32

// Driver owns one timer channel for the process lifetime. It is
// created once at startup and never torn down. All methods except the
// reload handler run on the single measurement thread; overflows is
// the only state shared with the interrupt context.
type Driver struct {
	bus  Bus
	base uint32

	// Written only by the reload handler, read by everyone else.
	// The atomic carries the ordering contract between a register
	// access and an imminent interrupt delivery.
	overflows atomic.Uint32

	lastSeen uint32 // owned by Check, stall detection only
	pending  Sample // captured by Start, consumed by Stop

	shortIntervals uint32
	repairs        uint32
	saturations    uint32

	initialized bool
	diag        io.Writer
}

func NewDriver(bus Bus) *Driver {
	return &Driver{bus: bus, diag: os.Stderr}
}

// SetDiagSink redirects diagnostic lines, mainly for tests. The
// default sink is os.Stderr.
func (d *Driver) SetDiagSink(sink io.Writer) {
	d.diag = sink
}

// Init probes the candidate register bases in order, configures the
// first one that verifies and arms its reload interrupt. It is
// idempotent - a no-op after the first success. This is the only call
// in the package that can fail.
func (d *Driver) Init() error {
	if d.initialized {
		return nil
	}

	for _, base := range timerBases {
		if !d.bringUp(base) {
			fmt.Fprintf(d.diag, "hwtimer: timer at %#x failed verification\n", base)
			continue
		}
		d.base = base
		d.bus.Bind(base, d.onReload)
		d.bus.Write32(base+RegControl, runControl)
		d.overflows.Store(0)
		d.lastSeen = d.bus.Read32(base + RegValue)
		d.initialized = true
		d.warmup()
		return nil
	}

	return ErrNoWorkingTimer
}

// bringUp programs one channel for 32-bit periodic counting from the
// maximum reload value and confirms the counter actually decreases
// across a fixed busy-wait.
func (d *Driver) bringUp(base uint32) bool {
	d.bus.Write32(base+RegControl, 0) // stop before reprogramming
	d.bus.Write32(base+RegIntClr, 1)
	d.bus.Write32(base+RegLoad, CounterMax)
	d.bus.Write32(base+RegControl, probeControl)

	before := d.bus.Read32(base + RegValue)
	busyWait(verifySpins)
	after := d.bus.Read32(base + RegValue)

	// Just loaded with the maximum value, so a working counter
	// cannot have wrapped within the busy-wait.
	return after < before
}

// warmup runs discarded measurement cycles to settle cache and
// pipeline state before real measurements. Results and diagnostics
// are not kept.
func (d *Driver) warmup() {
	for i := 0; i < warmupCycles; i++ {
		start := d.sample()
		busyWait(verifySpins)
		waitSink += uint32(Elapsed(start, d.sample()))
	}
}

// onReload services the reload interrupt: count the wrap, acknowledge,
// nothing else. Reading VALUE here would add a second race source.
func (d *Driver) onReload() {
	d.overflows.Add(1)
	d.bus.Write32(d.base+RegIntClr, 1)
}

func (d *Driver) sample() Sample {
	return Sample{
		Value:     d.bus.Read32(d.base + RegValue),
		Overflows: d.overflows.Load(),
	}
}

// ensureEnabled restores a cleared enable bit, preserving every other
// control bit. An external reset can disable the timer mid-run.
func (d *Driver) ensureEnabled() {
	ctl := d.bus.Read32(d.base + RegControl)
	if ctl&CtlEnable != 0 {
		return
	}
	d.bus.Write32(d.base+RegControl, ctl|CtlEnable)
	d.repairs++
	fmt.Fprintf(d.diag, "hwtimer: counting disabled (control %#x), re-enabled\n", ctl)
}

// Check performs the in-loop self-repairs: restore a cleared enable
// bit, and reprogram the channel from scratch when the counter has not
// strictly decreased since the previous Check. Both repairs only log
// and count; Check never fails and never adjusts the overflow count,
// so an interval spanning a repair is unreliable - callers should
// discard a measurement across which Repairs advanced.
func (d *Driver) Check() {
	d.ensureEnabled()

	val := d.bus.Read32(d.base + RegValue)
	if val >= d.lastSeen {
		fmt.Fprintf(d.diag, "hwtimer: counter stalled at %d, reprogramming\n", val)
		d.bus.Write32(d.base+RegControl, 0)
		d.bus.Write32(d.base+RegIntClr, 1)
		d.bus.Write32(d.base+RegLoad, CounterMax)
		d.bus.Write32(d.base+RegControl, runControl)
		d.repairs++
		val = d.bus.Read32(d.base + RegValue)
	}
	d.lastSeen = val
}

// Start opens a measurement interval. Nested Start/Stop pairs are a
// caller error and are not detected here.
func (d *Driver) Start() {
	d.ensureEnabled()
	d.pending = d.sample()
}

// Stop closes the interval opened by the last Start and returns the
// elapsed tick count, saturated to 32 bits. It never fails; overlong
// and suspiciously short intervals are surfaced through the
// diagnostic counters only.
func (d *Driver) Stop() uint32 {
	ticks := Elapsed(d.pending, d.sample())
	if ticks > CounterMax {
		d.saturations++
		fmt.Fprintf(d.diag, "hwtimer: elapsed %d ticks exceeds 32 bits, saturated\n", ticks)
		ticks = CounterMax
	}
	if ticks < shortTicks {
		d.shortIntervals++
	}
	return uint32(ticks)
}

// Reset forces the reload register back to the maximum without
// touching overflow bookkeeping, for independent measurement sections
// that do not need overflow continuity.
func (d *Driver) Reset() {
	d.bus.Write32(d.base+RegLoad, CounterMax)
}

// Base returns the register base Init settled on.
func (d *Driver) Base() uint32 {
	return d.base
}

// Overflows returns the number of full countdown periods recorded
// since Init.
func (d *Driver) Overflows() uint32 {
	return d.overflows.Load()
}

// ShortIntervals counts Stop results below the plausibility threshold.
func (d *Driver) ShortIntervals() uint32 {
	return d.shortIntervals
}

// Repairs counts enable-bit restores and stall reprogrammings
// performed by Check and Start.
func (d *Driver) Repairs() uint32 {
	return d.repairs
}

// Saturations counts Stop results clipped to 32 bits.
func (d *Driver) Saturations() uint32 {
	return d.saturations
}

// ResetDiagnostics zeroes the advisory counters. The overflow count is
// not a diagnostic and is left alone.
func (d *Driver) ResetDiagnostics() {
	d.shortIntervals = 0
	d.repairs = 0
	d.saturations = 0
}
