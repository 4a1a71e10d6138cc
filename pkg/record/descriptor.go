package record

import (
	"strconv"
	"strings"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// Kind is the record classification.
type Kind int

// Record kinds.
const (
	KindScalar Kind = iota
	KindEnumerated
	KindArray
	KindByteArray
	KindStreamPair
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindEnumerated:
		return "Enumerated"
	case KindArray:
		return "Array"
	case KindByteArray:
		return "ByteArray"
	case KindStreamPair:
		return "StreamPair"
	default:
		return "Unknown"
	}
}

// ParamType is the type of the parameter backing a record.
type ParamType int

// Parameter types.
const (
	ParamInt32 ParamType = iota
	ParamUInt32Digital
	ParamOctet
	ParamInt32Array
	ParamInt16Array
	ParamFloat64Array
)

func (t ParamType) String() string {
	switch t {
	case ParamInt32:
		return "Int32"
	case ParamUInt32Digital:
		return "UInt32Digital"
	case ParamOctet:
		return "Octet"
	case ParamInt32Array:
		return "Int32Array"
	case ParamInt16Array:
		return "Int16Array"
	case ParamFloat64Array:
		return "Float64Array"
	default:
		return "Unknown"
	}
}

// Record templates.
const (
	TemplateAI           = "ai"
	TemplateAO           = "ao"
	TemplateMBBI         = "mbbi"
	TemplateMBBO         = "mbbo"
	TemplateBO           = "bo"
	TemplateWaveformIn   = "waveform_in"
	TemplateWaveformOut  = "waveform_out"
	TemplateWaveform8In  = "waveform_8_in"
	TemplateWaveform8Out = "waveform_8_out"
	TemplateStream16     = "waveform_stream16"
	TemplateStream32     = "waveform_stream32"
)

// MenuSlots is the number of named value fields of a menu record.
const MenuSlots = 16

// Menu record fields, indexed by slot.
var (
	MenuStringFields = [MenuSlots]string{
		"ZRST", "ONST", "TWST", "THST", "FRST", "FVST", "SXST", "SVST",
		"EIST", "NIST", "TEST", "ELST", "TVST", "TTST", "FTST", "FFST",
	}
	MenuValueFields = [MenuSlots]string{
		"ZRVL", "ONVL", "TWVL", "THVL", "FRVL", "FVVL", "SXVL", "SVVL",
		"EIVL", "NIVL", "TEVL", "ELVL", "TVVL", "TTVL", "FTVL", "FFVL",
	}
)

// Descriptor specifies one record to materialize.
type Descriptor struct {
	// RecordName excludes the external prefix and includes the suffix.
	RecordName  string
	Kind        Kind
	Class       AddrClass
	ParamName   string
	ParamType   ParamType
	Template    string
	Description string

	// Capability is the handle the record's parameter is bound to. For
	// fan-out records it is the single element's own capability.
	Capability Capability

	// Path is the register path, including the element index for fan-out.
	Path cpsw.Path

	// Leaf is the bare leaf name used for the parameter name.
	Leaf string

	// NBits and Mask describe menu records.
	NBits int
	Mask  uint64
	Menu  cpsw.Enum

	// Elements is the element count of array records.
	Elements int

	// Width is 16 or 32 for stream records.
	Width int
}

// ParamTag returns the class tag used in the parameter name.
func (d Descriptor) ParamTag() string {
	if d.Kind == KindStreamPair {
		return "STM" + strconv.Itoa(d.Width)
	}
	return d.Class.String()
}

// ParamName builds a parameter handle: the leaf name cut to ten characters,
// the class tag and a per-class sequence number.
func ParamName(leaf, tag string, seq int) string {
	if len(leaf) > 10 {
		leaf = leaf[:10]
	}
	return leaf + "_" + tag + "_" + strconv.Itoa(seq)
}

// Params renders the flat key=value parameter string of the record.
func (d Descriptor) Params(port, prefix string) string {
	var b strings.Builder
	b.WriteString("PORT=")
	b.WriteString(port)
	b.WriteString(",ADDR=")
	b.WriteString(strconv.Itoa(int(d.Class)))
	b.WriteString(",P=")
	b.WriteString(prefix)
	b.WriteString(",R=")
	b.WriteString(d.RecordName)
	b.WriteString(",PARAM=")
	b.WriteString(d.ParamName)
	b.WriteString(`,DESC="`)
	b.WriteString(d.Description)
	b.WriteByte('"')

	switch d.Kind {
	case KindEnumerated:
		b.WriteString(",MASK=")
		b.WriteString(strconv.FormatUint(d.Mask, 10))
		b.WriteString(",NOBT=")
		b.WriteString(strconv.Itoa(d.NBits))
		for k := 0; k < MenuSlots; k++ {
			b.WriteByte(',')
			b.WriteString(MenuStringFields[k])
			b.WriteByte('=')
			if k < len(d.Menu) {
				b.WriteString(d.Menu[k].Name)
			}
			b.WriteByte(',')
			b.WriteString(MenuValueFields[k])
			b.WriteByte('=')
			if k < len(d.Menu) {
				b.WriteString(strconv.FormatUint(d.Menu[k].Value, 10))
			}
		}
	case KindArray, KindByteArray:
		b.WriteString(",N=")
		b.WriteString(strconv.Itoa(d.Elements))
	}
	return b.String()
}
