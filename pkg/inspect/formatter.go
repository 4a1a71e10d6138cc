package inspect

import (
	"fmt"
	"strings"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes size, element count and enumeration details.
	ShowMetadata bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatTree renders a node and its children, one node per line.
func (f *Formatter) FormatTree(info *NodeInfo) string {
	var sb strings.Builder
	f.writeNode(&sb, info, 0)
	return sb.String()
}

func (f *Formatter) writeNode(sb *strings.Builder, info *NodeInfo, depth int) {
	sb.WriteString(f.Indent(depth, f.FormatNode(info)))
	sb.WriteByte('\n')
	for i := range info.Children {
		f.writeNode(sb, &info.Children[i], depth+1)
	}
	if info.Truncated {
		sb.WriteString(f.Indent(depth+1, "...\n"))
	}
}

// FormatNode renders one node on a single line.
func (f *Formatter) FormatNode(info *NodeInfo) string {
	name := info.Name
	if info.Kind == KindHub && info.Nelms > 1 {
		name = fmt.Sprintf("%s[%d]", name, info.Nelms)
	}
	if info.Kind == KindHub {
		return name + "/"
	}

	line := fmt.Sprintf("%s (%s)", name, info.Kind)
	if !f.ShowMetadata {
		return line
	}
	switch info.Kind {
	case KindRO, KindRW:
		line += fmt.Sprintf(" %d bits", info.SizeBits)
		if info.Nelms > 1 {
			line += fmt.Sprintf(" x%d", info.Nelms)
		}
		if len(info.Enum) > 0 {
			line += " " + FormatEnum(info.Enum)
		}
	}
	if info.Description != "" {
		line += fmt.Sprintf(" %q", info.Description)
	}
	return line
}

// FormatEnum renders an enumeration as {name=value,...}.
func FormatEnum(e cpsw.Enum) string {
	parts := make([]string, len(e))
	for i, entry := range e {
		parts[i] = fmt.Sprintf("%s=%d", entry.Name, entry.Value)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// FormatValues renders register values, using enumeration names when known.
func FormatValues(vals []uint64, e cpsw.Enum) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
		for _, entry := range e {
			if entry.Value == v {
				parts[i] = entry.Name
				break
			}
		}
	}
	return strings.Join(parts, " ")
}
