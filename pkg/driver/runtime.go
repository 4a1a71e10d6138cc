package driver

import (
	"fmt"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// The methods below serve runtime requests keyed by (address class,
// parameter index). They are valid once Init has returned and may be
// called concurrently. Failures are returned to the caller, logged and
// counted; nothing is retried.

func (d *Driver) binding(addr, index int) (*record.Descriptor, error) {
	if d.State() != StateDone {
		return nil, fmt.Errorf("%w: %s", ErrState, d.State())
	}
	if addr < 0 || addr >= record.NumClasses || index < 0 || index >= len(d.bindings[addr]) {
		return nil, fmt.Errorf("%w: %d/%d", ErrNoBinding, addr, index)
	}
	b := d.bindings[addr][index]
	if b == nil {
		return nil, fmt.Errorf("%w: %d/%d", ErrNoBinding, addr, index)
	}
	return b, nil
}

func (d *Driver) ioError(fn string, dir log.Direction, b *record.Descriptor, err error) error {
	d.recorder.IOError(b.Path.String(), log.IOEvent{
		Direction: dir,
		Function:  fn,
		ParamName: b.ParamName,
		AddrClass: int(b.Class),
		Message:   err.Error(),
	})
	d.metrics.RuntimeError(fn)
	d.debugLog("runtime access failed", "function", fn, "record", b.RecordName, "error", err)
	return fmt.Errorf("%s %s: %w", fn, b.RecordName, err)
}

func (d *Driver) get(fn string, addr, index, n int) ([]uint64, error) {
	b, err := d.binding(addr, index)
	if err != nil {
		return nil, err
	}
	h, ok := record.ScalarOf(b.Capability)
	if !ok {
		return nil, d.ioError(fn, log.DirectionRead, b, cpsw.ErrNotSupported)
	}
	vals := make([]uint64, n)
	got, err := h.GetVal(vals)
	if err != nil {
		return nil, d.ioError(fn, log.DirectionRead, b, err)
	}
	return vals[:got], nil
}

func (d *Driver) set(fn string, addr, index int, vals []uint64) error {
	b, err := d.binding(addr, index)
	if err != nil {
		return err
	}
	w, ok := b.Capability.(record.WritableScalar)
	if !ok {
		return d.ioError(fn, log.DirectionWrite, b, cpsw.ErrReadOnly)
	}
	if _, err := w.Handle.SetVal(vals); err != nil {
		return d.ioError(fn, log.DirectionWrite, b, err)
	}
	return nil
}

// ReadInt32 reads a scalar. Commands read as 0.
func (d *Driver) ReadInt32(addr, index int) (int32, error) {
	b, err := d.binding(addr, index)
	if err != nil {
		return 0, err
	}
	if _, ok := b.Capability.(record.Command); ok {
		return 0, nil
	}
	vals, err := d.get("readInt32", addr, index, 1)
	if err != nil || len(vals) == 0 {
		return 0, err
	}
	return int32(vals[0]), nil
}

// WriteInt32 sets a writable scalar or executes a command.
func (d *Driver) WriteInt32(addr, index int, v int32) error {
	b, err := d.binding(addr, index)
	if err != nil {
		return err
	}
	if c, ok := b.Capability.(record.Command); ok {
		if err := c.Handle.Execute(); err != nil {
			return d.ioError("writeInt32", log.DirectionWrite, b, err)
		}
		return nil
	}
	return d.set("writeInt32", addr, index, []uint64{uint64(uint32(v))})
}

// ReadUInt32Digital reads a menu value under mask.
func (d *Driver) ReadUInt32Digital(addr, index int, mask uint32) (uint32, error) {
	vals, err := d.get("readUInt32Digital", addr, index, 1)
	if err != nil || len(vals) == 0 {
		return 0, err
	}
	return uint32(vals[0]) & mask, nil
}

// WriteUInt32Digital writes a menu value under mask.
func (d *Driver) WriteUInt32Digital(addr, index int, v, mask uint32) error {
	return d.set("writeUInt32Digital", addr, index, []uint64{uint64(v & mask)})
}

// ReadInt32Array fills dst with register elements.
func (d *Driver) ReadInt32Array(addr, index int, dst []int32) (int, error) {
	vals, err := d.get("readInt32Array", addr, index, len(dst))
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		dst[i] = int32(v)
	}
	return len(vals), nil
}

// WriteInt32Array writes the leading register elements.
func (d *Driver) WriteInt32Array(addr, index int, src []int32) error {
	vals := make([]uint64, len(src))
	for i, v := range src {
		vals[i] = uint64(uint32(v))
	}
	return d.set("writeInt32Array", addr, index, vals)
}

// ReadOctet fills dst with byte-wide register elements.
func (d *Driver) ReadOctet(addr, index int, dst []byte) (int, error) {
	vals, err := d.get("readOctet", addr, index, len(dst))
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		dst[i] = byte(v)
	}
	return len(vals), nil
}

// WriteOctet writes the leading byte-wide register elements.
func (d *Driver) WriteOctet(addr, index int, src []byte) error {
	vals := make([]uint64, len(src))
	for i, v := range src {
		vals[i] = uint64(v)
	}
	return d.set("writeOctet", addr, index, vals)
}

// ReadFloat64Array fills dst with register elements as floats.
func (d *Driver) ReadFloat64Array(addr, index int, dst []float64) (int, error) {
	vals, err := d.get("readFloat64Array", addr, index, len(dst))
	if err != nil {
		return 0, err
	}
	for i, v := range vals {
		dst[i] = float64(v)
	}
	return len(vals), nil
}

// WriteFloat64Array writes the leading register elements, truncating
// fractions.
func (d *Driver) WriteFloat64Array(addr, index int, src []float64) error {
	vals := make([]uint64, len(src))
	for i, v := range src {
		vals[i] = uint64(int64(v))
	}
	return d.set("writeFloat64Array", addr, index, vals)
}
