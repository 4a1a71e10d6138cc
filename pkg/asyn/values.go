package asyn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// ErrBadValue is returned when a put value cannot be parsed.
var ErrBadValue = errors.New("invalid value")

// Get reads the current value of a record and formats it. Arrays are
// rendered as space separated elements, menu values by their label when one
// matches.
func (p *Port) Get(name string) (string, error) {
	rec, h, err := p.lookup(name)
	if err != nil {
		return "", err
	}
	prm := rec.Param

	if rec.IsStream() {
		v, ok := p.published(prm)
		if !ok {
			return "", fmt.Errorf("%s: %w", name, ErrNoValue)
		}
		switch a := v.(type) {
		case []int16:
			return joinInts(a), nil
		case []int32:
			return joinInts(a), nil
		}
		return "", fmt.Errorf("%s: unexpected array %T", name, v)
	}
	if h == nil {
		return "", ErrNoHandler
	}

	switch prm.Type {
	case record.ParamInt32:
		v, err := h.ReadInt32(prm.Addr, prm.Index)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(v), 10), nil

	case record.ParamUInt32Digital:
		v, err := h.ReadUInt32Digital(prm.Addr, prm.Index, rec.Mask())
		if err != nil {
			return "", err
		}
		for _, c := range rec.Menu() {
			if c.Value == v {
				return c.Label, nil
			}
		}
		return strconv.FormatUint(uint64(v), 10), nil

	case record.ParamInt32Array:
		dst := make([]int32, rec.Elements())
		n, err := h.ReadInt32Array(prm.Addr, prm.Index, dst)
		if err != nil {
			return "", err
		}
		return joinInts(dst[:n]), nil

	case record.ParamOctet:
		dst := make([]byte, rec.Elements())
		n, err := h.ReadOctet(prm.Addr, prm.Index, dst)
		if err != nil {
			return "", err
		}
		return joinInts(dst[:n]), nil

	case record.ParamFloat64Array:
		dst := make([]float64, rec.Elements())
		n, err := h.ReadFloat64Array(prm.Addr, prm.Index, dst)
		if err != nil {
			return "", err
		}
		parts := make([]string, n)
		for i, f := range dst[:n] {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, " "), nil
	}
	return "", fmt.Errorf("%s: unsupported parameter type %s", name, prm.Type)
}

// Put parses value for the record's parameter type and writes it. Menu
// records accept a label or a number.
func (p *Port) Put(name, value string) error {
	rec, h, err := p.lookup(name)
	if err != nil {
		return err
	}
	if !rec.Writable() {
		return fmt.Errorf("%s: %w", name, ErrReadOnly)
	}
	if h == nil {
		return ErrNoHandler
	}
	prm := rec.Param
	value = strings.TrimSpace(value)

	switch prm.Type {
	case record.ParamInt32:
		v, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrBadValue, value)
		}
		return h.WriteInt32(prm.Addr, prm.Index, int32(v))

	case record.ParamUInt32Digital:
		v, err := menuValue(rec, value)
		if err != nil {
			return err
		}
		return h.WriteUInt32Digital(prm.Addr, prm.Index, v, rec.Mask())

	case record.ParamInt32Array:
		vals, err := parseInts(value, 32)
		if err != nil {
			return err
		}
		src := make([]int32, len(vals))
		for i, v := range vals {
			src[i] = int32(v)
		}
		return h.WriteInt32Array(prm.Addr, prm.Index, src)

	case record.ParamOctet:
		src := make([]byte, 0, len(value))
		for _, f := range strings.Fields(value) {
			v, err := strconv.ParseUint(f, 0, 8)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrBadValue, f)
			}
			src = append(src, byte(v))
		}
		return h.WriteOctet(prm.Addr, prm.Index, src)

	case record.ParamFloat64Array:
		fields := strings.Fields(value)
		src := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrBadValue, f)
			}
			src[i] = v
		}
		return h.WriteFloat64Array(prm.Addr, prm.Index, src)
	}
	return fmt.Errorf("%s: unsupported parameter type %s", name, prm.Type)
}

func menuValue(rec *Record, value string) (uint32, error) {
	for _, c := range rec.Menu() {
		if c.Label == value {
			return c.Value, nil
		}
	}
	v, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadValue, value)
	}
	return uint32(v), nil
}

func parseInts(s string, bits int) ([]int64, error) {
	fields := strings.Fields(s)
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadValue, f)
		}
		out[i] = v
	}
	return out, nil
}

func joinInts[T int16 | int32 | byte](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, " ")
}
