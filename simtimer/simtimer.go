// Package simtimer models the dual-channel down-counting timer block
// behind the hwtimer.Bus interface. Tests step it tick by tick; on a
// development host it advances itself from the monotonic clock so the
// rest of the harness runs unmodified.
package simtimer

import (
	"github.com/cosmikwolf/exprbench/hostclock"
	"github.com/cosmikwolf/exprbench/hwtimer"
)

const regSpan = 0x14

type channel struct {
	base    uint32
	load    uint32
	value   uint32
	control uint32
	ris     uint32

	dead    bool // unresponsive channel: reads zero, drops writes
	stalled bool // counter frozen until reprogrammed
}

// Device is a two-channel timer block. It is not safe for concurrent
// use; the modeled hardware has a single thread of execution plus one
// interrupt source, and handler delivery happens inline.
type Device struct {
	channels [2]channel

	handler     func()
	handlerBase uint32
	masked      bool

	clock func() int64
	rate  float64 // ticks per nanosecond
	last  int64
	carry float64
}

// NewDevice creates a manually stepped device with channels at the
// given bases. Nothing advances until Step is called.
func NewDevice(primary, fallback uint32) *Device {
	dev := &Device{}
	dev.channels[0].base = primary
	dev.channels[1].base = fallback
	return dev
}

// NewHostDevice creates a device that advances itself on every
// register read, scaling the host monotonic clock by rate ticks per
// nanosecond.
func NewHostDevice(primary, fallback uint32, rate float64) *Device {
	dev := NewDevice(primary, fallback)
	dev.clock = hostclock.Nanotime
	dev.rate = rate
	dev.last = dev.clock()
	return dev
}

func (d *Device) decode(addr uint32) (*channel, uint32) {
	for i := range d.channels {
		ch := &d.channels[i]
		if addr >= ch.base && addr < ch.base+regSpan {
			return ch, addr - ch.base
		}
	}
	return nil, 0
}

func (d *Device) Read32(addr uint32) uint32 {
	d.sync()

	ch, off := d.decode(addr)
	if ch == nil || ch.dead {
		return 0
	}
	switch off {
	case hwtimer.RegLoad:
		return ch.load
	case hwtimer.RegValue:
		return ch.value
	case hwtimer.RegControl:
		return ch.control
	case hwtimer.RegRIS:
		return ch.ris
	}
	return 0
}

func (d *Device) Write32(addr uint32, val uint32) {
	ch, off := d.decode(addr)
	if ch == nil || ch.dead {
		return
	}
	switch off {
	case hwtimer.RegLoad:
		// writing the reload value also loads the counter
		ch.load = val
		ch.value = val
	case hwtimer.RegControl:
		ch.control = val
		ch.stalled = false
	case hwtimer.RegIntClr:
		if val != 0 {
			ch.ris = 0
		}
	}
}

// Bind registers the single reload-interrupt handler for one channel,
// replacing any previous binding.
func (d *Device) Bind(base uint32, handler func()) {
	d.handlerBase = base
	d.handler = handler
}

// Step advances every counting channel by the given number of ticks,
// delivering the reload interrupt for each underflow as it happens.
func (d *Device) Step(ticks uint64) {
	for i := range d.channels {
		d.stepChannel(&d.channels[i], ticks)
	}
}

func (d *Device) stepChannel(ch *channel, ticks uint64) {
	if ch.dead || ch.stalled || ch.control&hwtimer.CtlEnable == 0 {
		return
	}
	for ticks > 0 {
		if ticks <= uint64(ch.value) {
			ch.value -= uint32(ticks)
			return
		}
		// consume the countdown to zero plus the reload edge
		ticks -= uint64(ch.value) + 1
		if ch.control&hwtimer.CtlPeriodic != 0 {
			ch.value = ch.load
		} else {
			ch.value = 0
			ticks = 0
		}
		d.raise(ch)
	}
}

func (d *Device) raise(ch *channel) {
	ch.ris = 1
	d.deliver(ch)
}

func (d *Device) deliver(ch *channel) {
	if d.masked || ch.control&hwtimer.CtlIntEnable == 0 {
		return
	}
	if d.handler != nil && d.handlerBase == ch.base {
		d.handler()
	}
}

// sync advances the channels from the host clock. Manual devices have
// no clock and stay put between Steps.
func (d *Device) sync() {
	if d.clock == nil {
		return
	}
	now := d.clock()
	dt := now - d.last
	if dt <= 0 {
		return
	}
	d.last = now

	span := float64(dt)*d.rate + d.carry
	ticks := uint64(span)
	d.carry = span - float64(ticks)
	d.Step(ticks)
}

// KillChannel makes the channel at base unresponsive: reads return
// zero and writes are dropped. Used to exercise the Init fallback.
func (d *Device) KillChannel(base uint32) {
	if ch, _ := d.decode(base); ch != nil {
		ch.dead = true
	}
}

// Stall freezes the counter at base until the channel's CONTROL
// register is rewritten.
func (d *Device) Stall(base uint32) {
	if ch, _ := d.decode(base); ch != nil {
		ch.stalled = true
	}
}

// ClearEnable drops the enable bit at base, modeling an external reset
// disabling the timer mid-run.
func (d *Device) ClearEnable(base uint32) {
	if ch, _ := d.decode(base); ch != nil {
		ch.control &^= hwtimer.CtlEnable
	}
}

// SetMask globally masks or unmasks interrupt delivery. Unmasking
// delivers an interrupt left pending while masked.
func (d *Device) SetMask(masked bool) {
	d.masked = masked
	if masked {
		return
	}
	for i := range d.channels {
		if d.channels[i].ris != 0 {
			d.deliver(&d.channels[i])
		}
	}
}
