// Package decay implements string values that degrade over time.
//
// A String binds to the entropy_mem kernel device when it is present and
// writable ("device mode"); otherwise it falls back to a deterministic
// in-process simulation ("sim mode"). The choice is made once, at
// construction, and never revisited — there is no re-probe and no upgrade
// from sim to device mode.
package decay

import (
	"errors"
	"os"
	"runtime"
)

// Config configures a String. Immutable once passed to New.
type Config struct {
	// DevicePath locates the kernel device. Empty means DefaultDevicePath.
	DevicePath string
	// ForceSimulation skips device binding entirely.
	ForceSimulation bool
}

// DefaultConfig returns the stock configuration: default device path,
// simulation only as fallback.
func DefaultConfig() Config {
	return Config{DevicePath: DefaultDevicePath}
}

// backend is the closed set of decay implementations: the kernel device or
// the simulation. Exactly one backs a String at a time.
type backend interface {
	value() string
	bound() bool
	close()
}

// simBackend adapts Sim to the backend contract.
type simBackend struct {
	sim *Sim
}

func (b *simBackend) value() string { return b.sim.Read() }
func (b *simBackend) bound() bool   { return false }
func (b *simBackend) close()        { b.sim.Close() }

// String is a string value that decays over time.
//
// Single-owner: a String is not safe for concurrent use without external
// synchronization.
type String struct {
	b       backend
	cleanup runtime.Cleanup
}

// New creates a decaying string holding content.
//
// Device binding failures (missing device, permission denied, any OS error
// on open or the initial write) are normal operational outcomes and fall
// back silently to simulation. The only hard error is ErrInvalidContent.
func New(content string, cfg Config) (*String, error) {
	path := cfg.DevicePath
	if path == "" {
		path = DefaultDevicePath
	}

	s := &String{}

	if !cfg.ForceSimulation {
		if _, err := os.Stat(path); err == nil {
			dev, err := bindDevice(path, content)
			switch {
			case err == nil:
				s.b = dev
			case errors.Is(err, ErrInvalidContent):
				return nil, err
			}
			// Any other error: fall through to simulation.
		}
	}

	if s.b == nil {
		s.b = &simBackend{sim: NewSim(content)}
	}

	// Safety net if the owner never calls Close. The explicit Close is the
	// primary contract; this only covers discarded values.
	s.cleanup = runtime.AddCleanup(s, func(b backend) { b.close() }, s.b)

	return s, nil
}

// Value returns the current (possibly decayed) content. It never fails: in
// device mode undecodable bytes are replaced and I/O errors yield a
// diagnostic marker string; after Close it returns "".
func (s *String) Value() string {
	return s.b.value()
}

// IsBoundToResource reports whether the value is backed by the kernel
// device.
func (s *String) IsBoundToResource() bool {
	return s.b.bound()
}

// Close finalizes the value: in device mode it clears the device and
// releases the handle, in sim mode it drops the simulation content.
// Idempotent; subsequent Value calls return "".
func (s *String) Close() {
	s.cleanup.Stop()
	s.b.close()
}
