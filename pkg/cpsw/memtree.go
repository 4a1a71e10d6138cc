package cpsw

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Node classes in a tree description.
const (
	ClassHub      = "hub"
	ClassRegister = "register"
	ClassCommand  = "command"
	ClassStream   = "stream"
)

// Register access modes in a tree description.
const (
	AccessRO = "RO"
	AccessRW = "RW"
)

// DefaultSizeBits is used for registers that do not declare a width.
const DefaultSizeBits = 32

// streamQueueDepth bounds the number of buffers pushed ahead of the reader.
const streamQueueDepth = 64

// Document is the YAML description of a register tree.
type Document struct {
	IPAddr string   `yaml:"ipAddr,omitempty"`
	Root   NodeSpec `yaml:"root"`
}

// NodeSpec describes one node.
type NodeSpec struct {
	Name        string      `yaml:"name"`
	Class       string      `yaml:"class,omitempty"`
	Access      string      `yaml:"access,omitempty"`
	SizeBits    int         `yaml:"sizeBits,omitempty"`
	Nelms       int         `yaml:"nelms,omitempty"`
	Description string      `yaml:"description,omitempty"`
	Enums       []EnumEntry `yaml:"enums,omitempty"`
	Values      []uint64    `yaml:"values,omitempty"`
	Sequence    []StepSpec  `yaml:"sequence,omitempty"`
	Children    []NodeSpec  `yaml:"children,omitempty"`
}

// StepSpec is one write of a command sequence. Path is relative to the
// hub holding the command.
type StepSpec struct {
	Path  string `yaml:"path"`
	Value uint64 `yaml:"value"`
}

type node struct {
	name     string
	desc     string
	class    string
	access   string
	sizeBits int
	nelms    int
	enum     Enum
	initial  []uint64
	sequence []StepSpec
	children []*node
	byName   map[string]*node
}

func (n *node) Name() string        { return n.name }
func (n *node) Description() string { return n.desc }
func (n *node) Nelms() int          { return n.nelms }
func (n *node) IsHub() bool         { return n.class == ClassHub }

// MemTree is an in-memory Tree.
type MemTree struct {
	mu      sync.RWMutex
	ipAddr  string
	root    *node
	regs    map[string][]uint64
	streams map[string]*memStream
	execs   map[string]int

	interrupted bool
}

var _ Tree = (*MemTree)(nil)

// LoadTree reads a tree description from a YAML file.
func LoadTree(path string) (*MemTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree description: %w", err)
	}
	return ParseTree(data)
}

// ParseTree builds a tree from a YAML description.
func ParseTree(data []byte) (*MemTree, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tree description: %w", err)
	}
	return NewMemTree(doc)
}

// NewMemTree builds a tree from a parsed document.
func NewMemTree(doc Document) (*MemTree, error) {
	if doc.Root.Class == "" {
		doc.Root.Class = ClassHub
	}
	root, err := buildNode(doc.Root, "")
	if err != nil {
		return nil, err
	}
	if !root.IsHub() || root.nelms != 1 {
		return nil, fmt.Errorf("root %q must be a single hub", root.name)
	}
	return &MemTree{
		ipAddr:  doc.IPAddr,
		root:    root,
		regs:    make(map[string][]uint64),
		streams: make(map[string]*memStream),
		execs:   make(map[string]int),
	}, nil
}

func buildNode(spec NodeSpec, parent string) (*node, error) {
	where := parent + "/" + spec.Name
	if spec.Name == "" {
		return nil, fmt.Errorf("node under %q has no name", parent+"/")
	}
	if strings.ContainsAny(spec.Name, "/[] \t") {
		return nil, fmt.Errorf("node %q: name contains reserved characters", where)
	}

	n := &node{
		name:     spec.Name,
		desc:     spec.Description,
		class:    spec.Class,
		access:   strings.ToUpper(spec.Access),
		sizeBits: spec.SizeBits,
		nelms:    spec.Nelms,
		initial:  spec.Values,
		sequence: spec.Sequence,
	}
	if len(spec.Enums) > 0 {
		n.enum = append(Enum(nil), spec.Enums...)
	}
	if n.class == "" {
		if len(spec.Children) > 0 {
			n.class = ClassHub
		} else {
			n.class = ClassRegister
		}
	}
	if n.nelms == 0 {
		n.nelms = 1
	}
	if n.nelms < 0 {
		return nil, fmt.Errorf("node %q: negative nelms", where)
	}

	switch n.class {
	case ClassHub:
		n.byName = make(map[string]*node, len(spec.Children))
		for _, cs := range spec.Children {
			c, err := buildNode(cs, where)
			if err != nil {
				return nil, err
			}
			if _, dup := n.byName[c.name]; dup {
				return nil, fmt.Errorf("node %q: duplicate child %q", where, c.name)
			}
			n.byName[c.name] = c
			n.children = append(n.children, c)
		}
	case ClassRegister:
		if n.access == "" {
			n.access = AccessRO
		}
		if n.access != AccessRO && n.access != AccessRW {
			return nil, fmt.Errorf("node %q: unknown access %q", where, spec.Access)
		}
		if n.sizeBits == 0 {
			n.sizeBits = DefaultSizeBits
		}
		if n.sizeBits < 0 || n.sizeBits > 64 {
			return nil, fmt.Errorf("node %q: sizeBits %d out of range", where, n.sizeBits)
		}
		if len(n.initial) > n.nelms {
			return nil, fmt.Errorf("node %q: %d initial values for %d elements", where, len(n.initial), n.nelms)
		}
	case ClassCommand, ClassStream:
	default:
		return nil, fmt.Errorf("node %q: unknown class %q", where, spec.Class)
	}
	if n.class != ClassHub && len(spec.Children) > 0 {
		return nil, fmt.Errorf("node %q: only hubs have children", where)
	}
	return n, nil
}

// IPAddr returns the target address recorded in the description.
func (t *MemTree) IPAddr() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ipAddr
}

// SetIPAddr overrides the target address.
func (t *MemTree) SetIPAddr(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ipAddr = addr
}

// Root implements Tree.
func (t *MemTree) Root() Path {
	return NewPath(Segment{Name: t.root.name, Index: NoIndex})
}

// resolved is a path bound to its node.
type resolved struct {
	node *node
	// key identifies register storage; hub instances are always indexed.
	key string
	// elem selects a single leaf element, or NoIndex for the whole leaf.
	elem int
	// parent is the canonical path of the enclosing hub instance.
	parent Path
}

func (t *MemTree) resolve(p Path) (resolved, error) {
	if p.IsEmpty() {
		return resolved{}, ErrEmptyPath
	}
	first := p.Segment(0)
	if first.Name != t.root.name || (first.HasIndex() && first.Index != 0) {
		return resolved{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	cur := t.root
	canon := t.Root()
	elem := NoIndex
	for i := 1; i < p.Len(); i++ {
		seg := p.Segment(i)
		if !cur.IsHub() {
			return resolved{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		child, ok := cur.byName[seg.Name]
		if !ok {
			return resolved{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		if seg.HasIndex() && seg.Index >= child.nelms {
			return resolved{}, fmt.Errorf("%w: index %d of %s", ErrRange, seg.Index, p)
		}
		if child.IsHub() {
			idx := seg.Index
			if idx == NoIndex {
				idx = 0
			}
			if child.nelms > 1 {
				canon = canon.ChildAt(child.name, idx)
			} else {
				canon = canon.Child(child.name)
			}
		} else {
			if i != p.Len()-1 {
				return resolved{}, fmt.Errorf("%w: %s", ErrNotFound, p)
			}
			elem = seg.Index
			canon = canon.Child(child.name)
		}
		cur = child
	}
	return resolved{node: cur, key: canon.String(), elem: elem, parent: canon.Up()}, nil
}

// Lookup implements Tree.
func (t *MemTree) Lookup(p Path) (Child, error) {
	r, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	return r.node, nil
}

// Children implements Tree.
func (t *MemTree) Children(p Path) ([]Child, error) {
	r, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	if !r.node.IsHub() {
		return nil, fmt.Errorf("%w: %s", ErrNotHub, p)
	}
	out := make([]Child, len(r.node.children))
	for i, c := range r.node.children {
		out[i] = c
	}
	return out, nil
}

// OpenScalarRO implements Tree. Every register is readable.
func (t *MemTree) OpenScalarRO(p Path) (ScalarRO, error) {
	r, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	if r.node.class != ClassRegister {
		return nil, ErrNotSupported
	}
	return &memScalar{tree: t, path: p, r: r}, nil
}

// OpenScalarRW implements Tree.
func (t *MemTree) OpenScalarRW(p Path) (ScalarRW, error) {
	r, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	if r.node.class != ClassRegister || r.node.access != AccessRW {
		return nil, ErrNotSupported
	}
	return &memScalar{tree: t, path: p, r: r}, nil
}

// OpenCommand implements Tree.
func (t *MemTree) OpenCommand(p Path) (Command, error) {
	r, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	if r.node.class != ClassCommand {
		return nil, ErrNotSupported
	}
	return &memCommand{tree: t, path: p, r: r}, nil
}

// OpenStream implements Tree. Opening the same stream twice returns handles
// sharing one queue.
func (t *MemTree) OpenStream(p Path) (Stream, error) {
	r, err := t.resolve(p)
	if err != nil {
		return nil, err
	}
	if r.node.class != ClassStream {
		return nil, ErrNotSupported
	}
	return &streamHandle{path: p, s: t.stream(r.key)}, nil
}

func (t *MemTree) stream(key string) *memStream {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.streams[key]
	if !ok {
		s = newMemStream()
		if t.interrupted {
			s.interrupt()
		}
		t.streams[key] = s
	}
	return s
}

// Push queues a buffer on the stream at p. It blocks while the queue is
// full and fails once the stream is interrupted.
func (t *MemTree) Push(p Path, buf []byte) error {
	r, err := t.resolve(p)
	if err != nil {
		return err
	}
	if r.node.class != ClassStream {
		return ErrNotSupported
	}
	return t.stream(r.key).push(buf)
}

// Interrupt interrupts every stream. Pending and future reads return
// ErrInterrupted.
func (t *MemTree) Interrupt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interrupted = true
	for _, s := range t.streams {
		s.interrupt()
	}
}

// ExecCount returns how often the command at p has been executed.
func (t *MemTree) ExecCount(p Path) int {
	r, err := t.resolve(p)
	if err != nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.execs[r.key]
}

// storage returns the value slice of a register, creating it on first use.
// Callers hold t.mu for writing.
func (t *MemTree) storage(r resolved) []uint64 {
	vals, ok := t.regs[r.key]
	if !ok {
		vals = make([]uint64, r.node.nelms)
		copy(vals, r.node.initial)
		t.regs[r.key] = vals
	}
	return vals
}
