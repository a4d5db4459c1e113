// Package pit programs the legacy 8253/8254 Programmable Interval
// Timer as the kernel's only timebase, grounded on
// original_source/kernel/src/time.rs.
package pit

import "sync"

// BaseFrequency is the PIT's fixed input clock in Hz.
const BaseFrequency = 1193182

// DefaultReload is the 16-bit reload value original_source/kernel/src/time.rs
// programs when it asks for "no particular rate" (0 wraps to 65536,
// the PIT's own convention for "maximum divisor").
const DefaultReload = 65536

const (
	channel0Data = 0x40
	commandPort = 0x43
	modeSquareWave = 0x36 // channel 0, lobyte/hibyte, mode 3
)

// PortWriter writes a byte to an I/O port, the same injection shape
// pic.PortWriter uses.
type PortWriter func(port uint16, value byte)

// Configure programs channel 0 for a reload value of reload (0 means
// DefaultReload, matching the hardware's own wraparound), delivering
// roughly BaseFrequency/reload ticks per second on VecTimer.
func Configure(out PortWriter, reload uint16) {
	r := uint32(reload)
	if r == 0 {
		r = DefaultReload
	}
	out(commandPort, modeSquareWave)
	out(channel0Data, byte(r&0xff))
	out(channel0Data, byte(r>>8))
}

// Clock is a monotonic tick counter advanced once per VecTimer
// interrupt. It is the kernel's only notion of elapsed time; there is
// no calibrated wall clock or RTC support.
type Clock struct {
	mu sync.Mutex
	ticks uint64
}

// Tick advances the clock by one. Called from the timer interrupt
// handler, so it must stay cheap and allocation-free.
func (c *Clock) Tick() {
	c.mu.Lock()
	c.ticks++
	c.mu.Unlock()
}

// Ticks returns the number of timer interrupts observed so far.
func (c *Clock) Ticks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}
