package naming

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// DefaultTrimLen is the length unmatched segments are cut to.
const DefaultTrimLen = 3

// Resolver builds record-name prefixes.
type Resolver struct {
	top     *Dictionary
	general *Dictionary

	// TrimLen overrides DefaultTrimLen when positive.
	TrimLen int

	misses *MissLog
}

// NewResolver creates a resolver. Either dictionary may be nil.
func NewResolver(top, general *Dictionary) *Resolver {
	return &Resolver{
		top:     top,
		general: general,
		misses:  NewMissLog(),
	}
}

// Sizes returns the number of top and general dictionary entries.
func (r *Resolver) Sizes() (top, general int) {
	return r.top.Len(), r.general.Len()
}

// Misses returns the log of segments that matched no dictionary.
func (r *Resolver) Misses() *MissLog {
	return r.misses
}

func (r *Resolver) trimLen() int {
	if r.TrimLen > 0 {
		return r.TrimLen
	}
	return DefaultTrimLen
}

// ResolvePrefix returns the prefix for the leaf at p. The leaf segment itself
// is not part of the prefix. Paths without a parent yield "".
func (r *Resolver) ResolvePrefix(p cpsw.Path) string {
	parent := p.Up()
	if parent.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, parent.Len())
	for i := parent.Len() - 1; i >= 0; i-- {
		seg := parent.Segment(i)
		name, stop := r.substitute(seg.Name)
		parts = append(parts, name+seg.IndexString())
		if stop {
			break
		}
	}

	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
		b.WriteByte(':')
	}
	return b.String()
}

func (r *Resolver) substitute(name string) (out string, stop bool) {
	if e, ok := r.general.Match(name); ok {
		return e.Value, false
	}
	if e, ok := r.top.Match(name); ok {
		return e.Value, true
	}
	r.misses.Record(name)
	if n := r.trimLen(); len(name) > n {
		return name[:n], false
	}
	return name, false
}

// MissLog is an ordered set of unmatched segment names.
type MissLog struct {
	mu   sync.Mutex
	keys []string
	seen map[string]struct{}
}

// NewMissLog creates an empty log.
func NewMissLog() *MissLog {
	return &MissLog{seen: make(map[string]struct{})}
}

// Record adds name if it has not been seen.
func (m *MissLog) Record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[name]; ok {
		return
	}
	m.seen[name] = struct{}{}
	m.keys = append(m.keys, name)
}

// Keys returns the names in first-seen order.
func (m *MissLog) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// Len returns the number of distinct names.
func (m *MissLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// WriteTo writes one name per line.
func (m *MissLog) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, k := range m.Keys() {
		n, err := fmt.Fprintln(w, k)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LoadResolver creates a resolver from dictionary files. An empty topPath
// selects DefaultTopDictionary and an empty generalPath an empty dictionary.
func LoadResolver(topPath, generalPath string) (*Resolver, error) {
	general := NewDictionary()
	if generalPath != "" {
		dict, err := LoadDictionary(generalPath)
		if err != nil {
			return nil, err
		}
		general = dict
	}

	top := DefaultTopDictionary()
	if topPath != "" {
		dict, err := LoadDictionary(topPath)
		if err != nil {
			return nil, err
		}
		top = dict
	}
	return NewResolver(top, general), nil
}
