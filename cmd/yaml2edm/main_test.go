package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/driver"
)

const testTree = `
root:
  name: mmio
  children:
    - name: AmcCarrierCore
      children:
        - name: Version
          sizeBits: 32
        - name: Scratch
          access: RW
          sizeBits: 32
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(testTree), 0644))

	cfg := driver.DefaultConfig()
	cfg.YAMLDoc = doc
	cfg.RecordPrefix = "TST"
	out := filepath.Join(dir, "edm")

	stats, err := run(context.Background(), cfg, out, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Screens)
	assert.Equal(t, 1, stats.RO)
	assert.Equal(t, 1, stats.RW)

	assert.FileExists(t, filepath.Join(out, "menu.edl"))
	assert.FileExists(t, filepath.Join(out, "0_AmcCarrierCore.edl"))
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(testTree), 0644))

	cfg := driver.DefaultConfig()
	cfg.RecordPrefix = "TST"

	cfg.YAMLDoc = filepath.Join(dir, "missing.yaml")
	_, err := run(context.Background(), cfg, dir, 0)
	assert.Error(t, err)

	cfg.YAMLDoc = doc
	cfg.DictFile = filepath.Join(dir, "missing.txt")
	_, err = run(context.Background(), cfg, dir, 0)
	assert.Error(t, err)

	cfg.DictFile = ""
	_, err = run(context.Background(), cfg, "", 0)
	assert.Error(t, err)
}
