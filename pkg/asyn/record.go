package asyn

import (
	"strconv"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// Record is a materialized record.
type Record struct {
	// Name is the full process-variable name.
	Name     string
	Template string
	Params   string
	Fields   map[string]string
	Param    *Param
}

// Field returns a parameter of the record, or "".
func (r *Record) Field(key string) string {
	return r.Fields[key]
}

// Writable reports whether the record accepts puts.
func (r *Record) Writable() bool {
	switch r.Template {
	case record.TemplateAO, record.TemplateMBBO, record.TemplateBO,
		record.TemplateWaveformOut, record.TemplateWaveform8Out:
		return true
	}
	return false
}

// IsStream reports whether the record is fed by array callbacks.
func (r *Record) IsStream() bool {
	return r.Template == record.TemplateStream16 || r.Template == record.TemplateStream32
}

// Elements returns the N parameter, or 1.
func (r *Record) Elements() int {
	n, err := strconv.Atoi(r.Fields["N"])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Mask returns the MASK parameter, or all ones.
func (r *Record) Mask() uint32 {
	m, err := strconv.ParseUint(r.Fields["MASK"], 10, 32)
	if err != nil {
		return ^uint32(0)
	}
	return uint32(m)
}

// MenuChoice is one named value of a menu record.
type MenuChoice struct {
	Label string
	Value uint32
}

// Menu returns the filled menu slots in slot order.
func (r *Record) Menu() []MenuChoice {
	var out []MenuChoice
	for k := 0; k < record.MenuSlots; k++ {
		label := r.Fields[record.MenuStringFields[k]]
		if label == "" {
			continue
		}
		v, err := strconv.ParseUint(r.Fields[record.MenuValueFields[k]], 10, 32)
		if err != nil {
			continue
		}
		out = append(out, MenuChoice{Label: label, Value: uint32(v)})
	}
	return out
}
