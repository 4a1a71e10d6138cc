package asyn

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"sync"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// Port errors.
var (
	ErrDuplicate = errors.New("already exists")
	ErrNoParam   = errors.New("no such parameter")
	ErrNoRecord  = errors.New("no such record")
	ErrWrongPort = errors.New("record bound to another port")
	ErrAddress   = errors.New("address out of range")
	ErrReadOnly  = errors.New("record is read-only")
	ErrNoHandler = errors.New("no handler installed")
	ErrNoValue   = errors.New("no value published")
)

// Handler serves value requests for the parameters of a port. Requests are
// keyed by address and parameter index.
type Handler interface {
	ReadInt32(addr, index int) (int32, error)
	WriteInt32(addr, index int, v int32) error
	ReadUInt32Digital(addr, index int, mask uint32) (uint32, error)
	WriteUInt32Digital(addr, index int, v, mask uint32) error
	ReadInt32Array(addr, index int, dst []int32) (int, error)
	WriteInt32Array(addr, index int, src []int32) error
	ReadOctet(addr, index int, dst []byte) (int, error)
	WriteOctet(addr, index int, src []byte) error
	ReadFloat64Array(addr, index int, dst []float64) (int, error)
	WriteFloat64Array(addr, index int, src []float64) error
}

// Param is one entry of the parameter table.
type Param struct {
	Addr  int
	Index int
	Name  string
	Type  record.ParamType
}

// paramKey is a composite key for the array cache.
type paramKey struct {
	addr  int
	index int
}

// Port is a parameter table with its record database.
type Port struct {
	name string

	mu sync.RWMutex

	// Parameters by address, in creation order
	params [][]*Param

	// Records in load order, and by full name
	records []*Record
	byName  map[string]*Record

	handler Handler

	// Last array published per parameter
	arrays map[paramKey]any
}

// NewPort creates a port with numAddr addresses.
func NewPort(name string, numAddr int) *Port {
	return &Port{
		name:   name,
		params: make([][]*Param, numAddr),
		byName: make(map[string]*Record),
		arrays: make(map[paramKey]any),
	}
}

// Name returns the port name.
func (p *Port) Name() string {
	return p.name
}

// SetHandler installs the value request handler.
func (p *Port) SetHandler(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// CreateParam adds a parameter at addr and returns its index.
func (p *Port) CreateParam(addr int, name string, t record.ParamType) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if addr < 0 || addr >= len(p.params) {
		return 0, fmt.Errorf("create %s: %w: %d", name, ErrAddress, addr)
	}
	for _, prm := range p.params[addr] {
		if prm.Name == name {
			return 0, fmt.Errorf("create %s at %d: %w", name, addr, ErrDuplicate)
		}
	}
	index := len(p.params[addr])
	p.params[addr] = append(p.params[addr], &Param{Addr: addr, Index: index, Name: name, Type: t})
	return index, nil
}

// FindParam returns the index of the named parameter at addr.
func (p *Port) FindParam(addr int, name string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prm := p.findParam(addr, name)
	if prm == nil {
		return 0, false
	}
	return prm.Index, true
}

func (p *Port) findParam(addr int, name string) *Param {
	if addr < 0 || addr >= len(p.params) {
		return nil
	}
	for _, prm := range p.params[addr] {
		if prm.Name == name {
			return prm
		}
	}
	return nil
}

// NumParams returns the number of parameters at addr.
func (p *Port) NumParams(addr int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if addr < 0 || addr >= len(p.params) {
		return 0
	}
	return len(p.params[addr])
}

// LoadRecord materializes a record from a template name and a parameter
// string. The string must name this port, an address and an existing
// parameter, and carry the P and R name parts.
func (p *Port) LoadRecord(template, params string) error {
	fields, err := ParseParams(params)
	if err != nil {
		return err
	}
	if fields["PORT"] != p.name {
		return fmt.Errorf("%w: %q", ErrWrongPort, fields["PORT"])
	}
	addr, err := strconv.Atoi(fields["ADDR"])
	if err != nil {
		return fmt.Errorf("%w: ADDR=%q", ErrBadParams, fields["ADDR"])
	}
	if fields["P"] == "" || fields["R"] == "" {
		return fmt.Errorf("%w: missing P or R", ErrBadParams)
	}

	rec := &Record{
		Name:     fields["P"] + ":" + fields["R"],
		Template: template,
		Params:   params,
		Fields:   fields,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rec.Param = p.findParam(addr, fields["PARAM"])
	if rec.Param == nil {
		return fmt.Errorf("record %s: %w: %q at %d", rec.Name, ErrNoParam, fields["PARAM"], addr)
	}
	if _, ok := p.byName[rec.Name]; ok {
		return fmt.Errorf("record %s: %w", rec.Name, ErrDuplicate)
	}
	p.records = append(p.records, rec)
	p.byName[rec.Name] = rec
	return nil
}

// Record returns the record with the given full name.
func (p *Port) Record(name string) (*Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.byName[name]
	return rec, ok
}

// Records returns the records whose name matches pattern, in load order.
// An empty pattern matches everything; otherwise path.Match syntax applies.
func (p *Port) Records(pattern string) []*Record {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*Record, 0, len(p.records))
	for _, rec := range p.records {
		if pattern != "" {
			if ok, _ := path.Match(pattern, rec.Name); !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// WriteDatabase writes one load line per record.
func (p *Port) WriteDatabase(w io.Writer) error {
	for _, rec := range p.Records("") {
		if _, err := fmt.Fprintf(w, "dbLoadRecords(%q, %q)\n", "db/"+rec.Template+".template", rec.Params); err != nil {
			return err
		}
	}
	return nil
}

// DoCallbacksInt16Array publishes a 16-bit array for the parameter.
func (p *Port) DoCallbacksInt16Array(addr, index int, v []int16) {
	p.publish(addr, index, append([]int16(nil), v...))
}

// DoCallbacksInt32Array publishes a 32-bit array for the parameter.
func (p *Port) DoCallbacksInt32Array(addr, index int, v []int32) {
	p.publish(addr, index, append([]int32(nil), v...))
}

func (p *Port) publish(addr, index int, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.arrays[paramKey{addr: addr, index: index}] = v
}

func (p *Port) lookup(name string) (*Record, Handler, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.byName[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
	}
	return rec, p.handler, nil
}

func (p *Port) published(prm *Param) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.arrays[paramKey{addr: prm.Addr, index: prm.Index}]
	return v, ok
}
