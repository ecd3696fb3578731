package termview

import (
	headlessterm "github.com/danielgatis/go-headless-term"
)

// Addon extends a terminal instance at construction time. Addons are
// supplied through [Props.Addons], loaded exactly once each in caller
// order, and remain owned by the caller. A load failure aborts the mount.
type Addon interface {
	Load(inst *Instance) error
}

// AddonFunc adapts a plain function to the Addon interface.
type AddonFunc func(inst *Instance) error

// Load implements Addon.
func (f AddonFunc) Load(inst *Instance) error {
	return f(inst)
}

// RecorderAddon captures the raw bytes written to the instance, before ANSI
// parsing, for replay or regression testing. It wraps the emulator's
// recording machinery.
type RecorderAddon struct {
	rec *headlessterm.MemoryRecording
}

// NewRecorderAddon creates an unloaded recorder addon.
func NewRecorderAddon() *RecorderAddon {
	return &RecorderAddon{rec: headlessterm.NewMemoryRecording()}
}

// Load implements Addon.
func (a *RecorderAddon) Load(inst *Instance) error {
	if inst == nil || inst.isDisposed() {
		return ErrDisposed
	}
	inst.Terminal().SetRecordingProvider(a.rec)
	return nil
}

// Data returns all bytes captured since the last Reset.
func (a *RecorderAddon) Data() []byte {
	return a.rec.Data()
}

// Reset discards the captured bytes.
func (a *RecorderAddon) Reset() {
	a.rec.Clear()
}

var _ Addon = AddonFunc(nil)
var _ Addon = (*RecorderAddon)(nil)
