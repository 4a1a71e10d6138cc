// Package inspect describes register trees for interactive display.
package inspect

import (
	"errors"
	"fmt"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// Tree is the part of cpsw.Tree the inspector reads.
type Tree interface {
	Lookup(p cpsw.Path) (cpsw.Child, error)
	Children(p cpsw.Path) ([]cpsw.Child, error)
	OpenScalarRO(p cpsw.Path) (cpsw.ScalarRO, error)
	OpenScalarRW(p cpsw.Path) (cpsw.ScalarRW, error)
	OpenCommand(p cpsw.Path) (cpsw.Command, error)
	OpenStream(p cpsw.Path) (cpsw.Stream, error)
}

// Kind is the role of a node.
type Kind int

const (
	KindHub Kind = iota
	KindRO
	KindRW
	KindCommand
	KindStream
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindHub:
		return "hub"
	case KindRO:
		return "RO"
	case KindRW:
		return "RW"
	case KindCommand:
		return "command"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// NodeInfo describes one node and, for hubs, the nodes below it.
type NodeInfo struct {
	Path        cpsw.Path
	Name        string
	Description string
	Kind        Kind
	Nelms       int

	// Leaf details.
	SizeBits int
	Enum     cpsw.Enum

	Children []NodeInfo
	// Truncated is set when the depth limit cut off the children.
	Truncated bool
}

// Inspector reads node descriptions from a tree.
type Inspector struct {
	tree Tree
}

// NewInspector creates an Inspector.
func NewInspector(tree Tree) *Inspector {
	return &Inspector{tree: tree}
}

// Inspect describes the node at p and its descendants up to depth levels
// below it. A negative depth is unlimited.
func (i *Inspector) Inspect(p cpsw.Path, depth int) (*NodeInfo, error) {
	c, err := i.tree.Lookup(p)
	if err != nil {
		return nil, err
	}
	info, err := i.inspect(p, c, depth)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (i *Inspector) inspect(p cpsw.Path, c cpsw.Child, depth int) (NodeInfo, error) {
	info := NodeInfo{
		Path:        p,
		Name:        c.Name(),
		Description: c.Description(),
		Nelms:       c.Nelms(),
	}
	if !c.IsHub() {
		i.leaf(&info)
		return info, nil
	}

	info.Kind = KindHub
	children, err := i.tree.Children(p)
	if err != nil {
		return info, fmt.Errorf("children of %s: %w", p, err)
	}
	if depth == 0 {
		info.Truncated = len(children) > 0
		return info, nil
	}
	for _, ch := range children {
		cp := p.Child(ch.Name())
		if ch.IsHub() && ch.Nelms() > 1 {
			cp = p.ChildAt(ch.Name(), 0)
		}
		ci, err := i.inspect(cp, ch, depth-1)
		if err != nil {
			return info, err
		}
		info.Children = append(info.Children, ci)
	}
	return info, nil
}

// leaf fills in the capability of a leaf. Writable registers are reported
// as RW even though they also read.
func (i *Inspector) leaf(info *NodeInfo) {
	if rw, err := i.tree.OpenScalarRW(info.Path); err == nil {
		info.Kind, info.SizeBits, info.Enum = KindRW, rw.SizeBits(), rw.Enum()
		return
	}
	if ro, err := i.tree.OpenScalarRO(info.Path); err == nil {
		info.Kind, info.SizeBits, info.Enum = KindRO, ro.SizeBits(), ro.Enum()
		return
	}
	if _, err := i.tree.OpenCommand(info.Path); err == nil {
		info.Kind = KindCommand
		return
	}
	if _, err := i.tree.OpenStream(info.Path); err == nil {
		info.Kind = KindStream
		return
	}
	info.Kind = KindUnknown
}

// ErrNotLeaf is returned by Read for hubs.
var ErrNotLeaf = errors.New("node is not a readable leaf")

// Read returns the current values of the scalar at p.
func (i *Inspector) Read(p cpsw.Path) ([]uint64, error) {
	ro, err := i.tree.OpenScalarRO(p)
	if err != nil {
		if errors.Is(err, cpsw.ErrNotSupported) {
			return nil, fmt.Errorf("%w: %s", ErrNotLeaf, p)
		}
		return nil, err
	}
	vals := make([]uint64, max(ro.Nelms(), 1))
	n, err := ro.GetVal(vals)
	if err != nil {
		return nil, err
	}
	return vals[:n], nil
}
