package inspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

const testTree = `
root:
  name: mmio
  children:
    - name: Core
      description: carrier core
      children:
        - name: Version
          sizeBits: 32
          description: firmware version
          values: [7]
        - name: Mode
          access: RW
          sizeBits: 2
          enums: [{name: Off, value: 0}, {name: On, value: 1}]
          values: [1]
        - name: Reset
          class: command
        - name: Stream0
          class: stream
    - name: Lane
      nelms: 2
      children:
        - name: Counters
          sizeBits: 16
          nelms: 3
          values: [4, 5, 6]
`

func newInspector(t *testing.T) (*Inspector, *cpsw.MemTree) {
	t.Helper()
	tree, err := cpsw.ParseTree([]byte(testTree))
	require.NoError(t, err)
	return NewInspector(tree), tree
}

func TestInspectTree(t *testing.T) {
	in, tree := newInspector(t)

	info, err := in.Inspect(tree.Root(), -1)
	require.NoError(t, err)
	assert.Equal(t, KindHub, info.Kind)
	require.Len(t, info.Children, 2)

	core := info.Children[0]
	require.Len(t, core.Children, 4)
	kinds := []Kind{KindRO, KindRW, KindCommand, KindStream}
	for i, c := range core.Children {
		assert.Equal(t, kinds[i], c.Kind, c.Name)
	}
	assert.Equal(t, 32, core.Children[0].SizeBits)
	assert.Len(t, core.Children[1].Enum, 2)

	lane := info.Children[1]
	assert.Equal(t, "/mmio/Lane[0]", lane.Path.String())
	assert.Equal(t, 2, lane.Nelms)
	assert.Equal(t, 3, lane.Children[0].Nelms)
}

func TestInspectDepthLimit(t *testing.T) {
	in, tree := newInspector(t)

	info, err := in.Inspect(tree.Root(), 1)
	require.NoError(t, err)
	require.Len(t, info.Children, 2)
	assert.True(t, info.Children[0].Truncated)
	assert.Empty(t, info.Children[0].Children)

	_, err = in.Inspect(tree.Root().Child("Missing"), -1)
	assert.Error(t, err)
}

func TestFormatTree(t *testing.T) {
	in, tree := newInspector(t)
	info, err := in.Inspect(tree.Root(), -1)
	require.NoError(t, err)

	out := NewFormatter().FormatTree(info)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	want := []string{
		`mmio/`,
		`  Core/`,
		`    Version (RO) 32 bits "firmware version"`,
		`    Mode (RW) 2 bits {Off=0,On=1}`,
		`    Reset (command)`,
		`    Stream0 (stream)`,
		`  Lane[2]/`,
		`    Counters (RO) 16 bits x3`,
	}
	assert.Equal(t, want, lines)

	f := &Formatter{IndentWidth: 4}
	assert.Equal(t, "        x", f.Indent(2, "x"))
	assert.Equal(t, "Version (RO)", f.FormatNode(&info.Children[0].Children[0]))
}

func TestReadValues(t *testing.T) {
	in, tree := newInspector(t)

	vals, err := in.Read(tree.Root().Child("Core").Child("Mode"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, vals)
	assert.Equal(t, "On", FormatValues(vals, cpsw.Enum{{Name: "Off", Value: 0}, {Name: "On", Value: 1}}))

	vals, err = in.Read(tree.Root().ChildAt("Lane", 1).Child("Counters"))
	require.NoError(t, err)
	assert.Equal(t, "4 5 6", FormatValues(vals, nil))

	_, err = in.Read(tree.Root().Child("Core").Child("Reset"))
	assert.ErrorIs(t, err, ErrNotLeaf)
}
