package cpsw

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NoIndex marks a segment that carries no array index.
const NoIndex = -1

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Segment is one element of a Path.
type Segment struct {
	// Name is the bare child name, without index suffix.
	Name string

	// Index is the array index, or NoIndex.
	Index int
}

// HasIndex reports whether the segment carries an array index.
func (s Segment) HasIndex() bool {
	return s.Index != NoIndex
}

// IndexString returns the decimal index, or "" when the segment has none.
func (s Segment) IndexString() string {
	if !s.HasIndex() {
		return ""
	}
	return strconv.Itoa(s.Index)
}

// String renders the segment as "Name" or "Name[i]".
func (s Segment) String() string {
	if !s.HasIndex() {
		return s.Name
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// ParseSegment parses "Name" or "Name[i]".
func ParseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, ErrEmptyPath
	}
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if strings.ContainsAny(s, "]/") {
			return Segment{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
		return Segment{Name: s, Index: NoIndex}, nil
	}
	if open == 0 || !strings.HasSuffix(s, "]") {
		return Segment{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, s)
	}
	return Segment{Name: s[:open], Index: idx}, nil
}

// Path is an ordered sequence of segments from the root to a node.
//
// Path is a value type. Up, Child and Join return new paths and never share
// a backing array with the receiver, so a recursive walk can branch from the
// same parent without one branch seeing another's segments.
type Path struct {
	segs []Segment
}

// NewPath builds a path from segments.
func NewPath(segs ...Segment) Path {
	out := make([]Segment, len(segs))
	copy(out, segs)
	return Path{segs: out}
}

// ParsePath parses a slash-delimited path such as "/mmio/Bay0/Ch[3]/Reg".
// The leading slash is optional.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Path{}, ErrEmptyPath
	}
	parts := strings.Split(s, "/")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := ParseSegment(part)
		if err != nil {
			return Path{}, err
		}
		segs = append(segs, seg)
	}
	return Path{segs: segs}, nil
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.segs) == 0
}

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segs))
	copy(out, p.segs)
	return out
}

// Segment returns the i-th segment.
func (p Path) Segment(i int) Segment {
	return p.segs[i]
}

// Tail returns the last segment. ok is false for an empty path.
func (p Path) Tail() (seg Segment, ok bool) {
	if len(p.segs) == 0 {
		return Segment{}, false
	}
	return p.segs[len(p.segs)-1], true
}

// Up returns the parent path. The parent of an empty path is empty.
func (p Path) Up() Path {
	if len(p.segs) == 0 {
		return Path{}
	}
	return NewPath(p.segs[:len(p.segs)-1]...)
}

// Child returns p extended by a segment without index.
func (p Path) Child(name string) Path {
	return p.Append(Segment{Name: name, Index: NoIndex})
}

// ChildAt returns p extended by name[index].
func (p Path) ChildAt(name string, index int) Path {
	return p.Append(Segment{Name: name, Index: index})
}

// Append returns p extended by seg.
func (p Path) Append(seg Segment) Path {
	out := make([]Segment, len(p.segs), len(p.segs)+1)
	copy(out, p.segs)
	return Path{segs: append(out, seg)}
}

// Join returns p extended by all segments of rel.
func (p Path) Join(rel Path) Path {
	out := make([]Segment, 0, len(p.segs)+len(rel.segs))
	out = append(out, p.segs...)
	out = append(out, rel.segs...)
	return Path{segs: out}
}

// Equal reports whether both paths have identical segments.
func (p Path) Equal(o Path) bool {
	if len(p.segs) != len(o.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != o.segs[i] {
			return false
		}
	}
	return true
}

// String renders the path as "/a/b[3]/c". An empty path renders as "/".
func (p Path) String() string {
	if len(p.segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}
