package cpsw

import (
	"fmt"
	"sync"
)

func valueMask(sizeBits int) uint64 {
	if sizeBits <= 0 || sizeBits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << sizeBits) - 1
}

type memScalar struct {
	tree *MemTree
	path Path
	r    resolved
}

func (s *memScalar) Path() Path    { return s.path }
func (s *memScalar) SizeBits() int { return s.r.node.sizeBits }
func (s *memScalar) Enum() Enum    { return s.r.node.enum }

func (s *memScalar) Nelms() int {
	if s.r.elem != NoIndex {
		return 1
	}
	return s.r.node.nelms
}

func (s *memScalar) window(vals []uint64) []uint64 {
	if s.r.elem != NoIndex {
		return vals[s.r.elem : s.r.elem+1]
	}
	return vals
}

func (s *memScalar) GetVal(dst []uint64) (int, error) {
	s.tree.mu.Lock()
	defer s.tree.mu.Unlock()
	return copy(dst, s.window(s.tree.storage(s.r))), nil
}

func (s *memScalar) SetVal(src []uint64) (int, error) {
	if s.r.node.access != AccessRW {
		return 0, fmt.Errorf("%w: %s", ErrReadOnly, s.path)
	}
	mask := valueMask(s.r.node.sizeBits)
	s.tree.mu.Lock()
	defer s.tree.mu.Unlock()
	w := s.window(s.tree.storage(s.r))
	if len(src) > len(w) {
		return 0, fmt.Errorf("%w: %d elements for %s", ErrRange, len(src), s.path)
	}
	for i, v := range src {
		w[i] = v & mask
	}
	return len(src), nil
}

type memCommand struct {
	tree *MemTree
	path Path
	r    resolved
}

func (c *memCommand) Path() Path { return c.path }

// Execute applies the command sequence. Every step writes its value to all
// elements of the target register.
func (c *memCommand) Execute() error {
	targets := make([]resolved, 0, len(c.r.node.sequence))
	for _, step := range c.r.node.sequence {
		rel, err := ParsePath(step.Path)
		if err != nil {
			return fmt.Errorf("command %s: %w", c.path, err)
		}
		tr, err := c.tree.resolve(c.r.parent.Join(rel))
		if err != nil {
			return fmt.Errorf("command %s: %w", c.path, err)
		}
		if tr.node.class != ClassRegister {
			return fmt.Errorf("command %s: step %q is not a register", c.path, step.Path)
		}
		targets = append(targets, tr)
	}

	c.tree.mu.Lock()
	defer c.tree.mu.Unlock()
	for i, tr := range targets {
		v := c.r.node.sequence[i].Value & valueMask(tr.node.sizeBits)
		vals := c.tree.storage(tr)
		if tr.elem != NoIndex {
			vals[tr.elem] = v
			continue
		}
		for j := range vals {
			vals[j] = v
		}
	}
	c.tree.execs[c.r.key]++
	return nil
}

type memStream struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func newMemStream() *memStream {
	return &memStream{
		ch:   make(chan []byte, streamQueueDepth),
		done: make(chan struct{}),
	}
}

func (s *memStream) push(buf []byte) error {
	cp := append([]byte(nil), buf...)
	select {
	case <-s.done:
		return ErrInterrupted
	default:
	}
	select {
	case <-s.done:
		return ErrInterrupted
	case s.ch <- cp:
		return nil
	}
}

func (s *memStream) read(buf []byte) (int, error) {
	select {
	case <-s.done:
		return 0, ErrInterrupted
	default:
	}
	select {
	case <-s.done:
		return 0, ErrInterrupted
	case b := <-s.ch:
		return copy(buf, b), nil
	}
}

func (s *memStream) interrupt() {
	s.once.Do(func() { close(s.done) })
}

type streamHandle struct {
	path Path
	s    *memStream
}

func (h *streamHandle) Path() Path                   { return h.path }
func (h *streamHandle) Read(buf []byte) (int, error) { return h.s.read(buf) }
