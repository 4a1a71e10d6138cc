package record

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// Builder defaults.
const (
	DefaultMaxMenu    = MenuSlots
	DefaultDescLenMax = 40
	DefaultNameLenMax = 37

	// ByteArrayBits is the element width classified as a byte array.
	ByteArrayBits = 8

	// fanOutReserve is the minimum room kept for the element index of
	// fan-out records.
	fanOutReserve = 2

	// suffixReserve is the separator after the external prefix plus the
	// three-character capability suffix.
	suffixReserve = 4
)

// ErrNameBudget is returned when the record-name length limit cannot hold
// the external prefix and a capability suffix.
var ErrNameBudget = errors.New("record name length budget too small")

// Opener re-opens per-element scalar capabilities for fan-out records.
type Opener interface {
	OpenScalarRO(p cpsw.Path) (cpsw.ScalarRO, error)
	OpenScalarRW(p cpsw.Path) (cpsw.ScalarRW, error)
}

// Config configures a Builder.
type Config struct {
	// Prefix is the external record prefix, prepended by the sink.
	Prefix string

	// NameLenMax bounds len(Prefix) + 1 + len(record name).
	NameLenMax int

	// MaxMenu is the largest enumeration encoded as a menu record.
	MaxMenu int

	// DescLenMax bounds the embedded description.
	DescLenMax int

	// Logger receives degradation warnings. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with default limits.
func DefaultConfig() Config {
	return Config{
		NameLenMax: DefaultNameLenMax,
		MaxMenu:    DefaultMaxMenu,
		DescLenMax: DefaultDescLenMax,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NameLenMax <= len(c.Prefix)+suffixReserve {
		return fmt.Errorf("%w: max %d must exceed prefix length %d + %d",
			ErrNameBudget, c.NameLenMax, len(c.Prefix), suffixReserve)
	}
	if c.MaxMenu < 1 || c.MaxMenu > MenuSlots {
		return fmt.Errorf("max menu size %d outside 1..%d", c.MaxMenu, MenuSlots)
	}
	if c.DescLenMax < 0 {
		return fmt.Errorf("negative description length %d", c.DescLenMax)
	}
	return nil
}

// Leaf is a leaf ready for classification.
type Leaf struct {
	Path        cpsw.Path
	Name        string
	Description string
	// NamePrefix is the resolved prefix, ending in ":" or empty.
	NamePrefix string
	// RecordBase, when set, replaces NamePrefix+Name as the record name
	// base. Static record dictionaries set it.
	RecordBase string
}

// Base returns the record name base of the leaf.
func (l Leaf) Base() string {
	if l.RecordBase != "" {
		return l.RecordBase
	}
	return l.NamePrefix + l.Name
}

// Result holds the descriptors of one capability.
type Result struct {
	Descriptors []Descriptor
	// Degraded is set when an enumeration was too large for a menu.
	Degraded bool
}

// Builder classifies leaf capabilities.
type Builder struct {
	config Config
	opener Opener
}

// NewBuilder creates a builder. opener is used for fan-out of enumerated
// arrays and may be nil when no fan-out occurs.
func NewBuilder(config Config, opener Opener) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Builder{config: config, opener: opener}, nil
}

// Config returns the builder configuration.
func (b *Builder) Config() Config {
	return b.config
}

func (b *Builder) warn(msg string, args ...any) {
	if b.config.Logger != nil {
		b.config.Logger.Warn(msg, args...)
	}
}

// nameBudget is the room for the record name between prefix and suffix.
func (b *Builder) nameBudget(suffix string) int {
	return b.config.NameLenMax - len(b.config.Prefix) - 1 - len(suffix)
}

// RecordName joins base and suffix, cutting base to fit the budget.
func (b *Builder) RecordName(base, suffix string) string {
	if n := b.nameBudget(suffix); len(base) > n {
		base = base[:max(n, 0)]
	}
	return base + suffix
}

// indexedName is RecordName for one element of a fan-out.
func (b *Builder) indexedName(base string, index int, suffix string) string {
	idx := strconv.Itoa(index)
	if n := b.nameBudget(suffix) - max(fanOutReserve, len(idx)); len(base) > n {
		base = base[:max(n, 0)]
	}
	return base + idx + suffix
}

// Disambiguate makes a colliding record name unique by inserting _n before
// its three-character suffix, cutting the base to keep within budget. It
// fails with ErrNameBudget when the tag alone does not fit.
func (b *Builder) Disambiguate(name string, n int) (string, error) {
	base, suffix := name, ""
	if len(name) >= 3 {
		base, suffix = name[:len(name)-3], name[len(name)-3:]
	}
	tag := "_" + strconv.Itoa(n)
	room := b.nameBudget(suffix) - len(tag)
	if room < 0 {
		return "", fmt.Errorf("%w: no room for %s in %s", ErrNameBudget, tag, name)
	}
	if len(base) > room {
		base = base[:room]
	}
	return base + tag + suffix, nil
}

func (b *Builder) description(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > b.config.DescLenMax {
		s = s[:b.config.DescLenMax]
	}
	return s
}

// Classify builds the descriptors for one capability of a leaf.
func (b *Builder) Classify(leaf Leaf, c Capability) (Result, error) {
	base := leaf.Base()
	d := Descriptor{
		Class:       c.Class(),
		Description: b.description(leaf.Description),
		Capability:  c,
		Path:        leaf.Path,
		Leaf:        leaf.Name,
	}

	switch v := c.(type) {
	case Command:
		d.Kind = KindScalar
		d.ParamType = ParamInt32
		d.Template = TemplateBO
		d.RecordName = b.RecordName(base, ClassCMD.Suffix())
		return Result{Descriptors: []Descriptor{d}}, nil

	case Stream:
		d16, d32 := d, d
		d16.Kind, d32.Kind = KindStreamPair, KindStreamPair
		d16.Width, d32.Width = 16, 32
		d16.ParamType, d32.ParamType = ParamInt16Array, ParamInt32Array
		d16.Template, d32.Template = TemplateStream16, TemplateStream32
		d16.RecordName = b.RecordName(base, StreamSuffix(16))
		d32.RecordName = b.RecordName(base, StreamSuffix(32))
		return Result{Descriptors: []Descriptor{d16, d32}}, nil

	case ReadableScalar, WritableScalar:
		h, _ := ScalarOf(v)
		return b.classifyScalar(leaf, d, h, base)

	default:
		return Result{}, fmt.Errorf("unknown capability %T", c)
	}
}

func (b *Builder) classifyScalar(leaf Leaf, d Descriptor, h cpsw.ScalarRO, base string) (Result, error) {
	suffix := d.Class.Suffix()
	nelms := h.Nelms()
	bits := h.SizeBits()
	enum := h.Enum()
	hasEnum := len(enum) > 0
	tooBig := len(enum) > b.config.MaxMenu

	if hasEnum && tooBig {
		b.warn("enumeration too large for menu record",
			"path", leaf.Path.String(), "entries", len(enum), "max", b.config.MaxMenu)
	}

	switch {
	case nelms <= 1 && hasEnum && !tooBig:
		d = b.menu(d, bits, enum)
		d.RecordName = b.RecordName(base, suffix)
		return Result{Descriptors: []Descriptor{d}}, nil

	case nelms <= 1:
		d.Kind = KindScalar
		d.ParamType = ParamInt32
		d.Template = pick(d.Class, TemplateAI, TemplateAO)
		d.RecordName = b.RecordName(base, suffix)
		return Result{Descriptors: []Descriptor{d}, Degraded: hasEnum}, nil

	case hasEnum && !tooBig:
		descs, err := b.fanOut(leaf, d, base)
		if err != nil {
			return Result{}, err
		}
		return Result{Descriptors: descs}, nil

	default:
		d.Elements = nelms
		if bits == ByteArrayBits {
			d.Kind = KindByteArray
			d.ParamType = ParamOctet
			d.Template = pick(d.Class, TemplateWaveform8In, TemplateWaveform8Out)
		} else {
			d.Kind = KindArray
			d.ParamType = ParamInt32Array
			d.Template = pick(d.Class, TemplateWaveformIn, TemplateWaveformOut)
		}
		d.RecordName = b.RecordName(base, suffix)
		return Result{Descriptors: []Descriptor{d}, Degraded: hasEnum}, nil
	}
}

func (b *Builder) menu(d Descriptor, bits int, enum cpsw.Enum) Descriptor {
	d.Kind = KindEnumerated
	d.ParamType = ParamUInt32Digital
	d.Template = pick(d.Class, TemplateMBBI, TemplateMBBO)
	d.NBits = bits
	d.Mask = bitMask(bits)
	d.Menu = enum
	return d
}

// fanOut emits one menu record per element, each bound to the element's own
// capability.
func (b *Builder) fanOut(leaf Leaf, d Descriptor, base string) ([]Descriptor, error) {
	if b.opener == nil {
		return nil, fmt.Errorf("fan-out of %s: no opener", leaf.Path)
	}
	h, _ := ScalarOf(d.Capability)
	nelms := h.Nelms()
	parent := leaf.Path.Up()
	suffix := d.Class.Suffix()

	out := make([]Descriptor, 0, nelms)
	for j := 0; j < nelms; j++ {
		p := parent.ChildAt(leaf.Name, j)
		ed := d
		ed.Path = p

		var elem cpsw.ScalarRO
		if d.Class == ClassRW {
			rw, err := b.opener.OpenScalarRW(p)
			if err != nil {
				return nil, fmt.Errorf("open element %s: %w", p, err)
			}
			ed.Capability = WritableScalar{Handle: rw}
			elem = rw
		} else {
			ro, err := b.opener.OpenScalarRO(p)
			if err != nil {
				return nil, fmt.Errorf("open element %s: %w", p, err)
			}
			ed.Capability = ReadableScalar{Handle: ro}
			elem = ro
		}

		enum := elem.Enum()
		if len(enum) == 0 || len(enum) > b.config.MaxMenu {
			ed.Kind = KindScalar
			ed.ParamType = ParamInt32
			ed.Template = pick(d.Class, TemplateAI, TemplateAO)
		} else {
			ed = b.menu(ed, elem.SizeBits(), enum)
		}
		ed.RecordName = b.indexedName(base, j, suffix)
		out = append(out, ed)
	}
	return out, nil
}

func pick(c AddrClass, in, out string) string {
	if c == ClassRW {
		return out
	}
	return in
}

func bitMask(bits int) uint64 {
	if bits <= 0 || bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}
