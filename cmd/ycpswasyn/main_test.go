package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/asyn"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atca.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
portName: ATCA2
yamlDoc: /srv/yaml/000TopLevel.yaml
recordPrefix: FILE
dictFile: dict.txt
`), 0644))

	opts.ConfigFile = path
	t.Cleanup(func() { opts.ConfigFile = "" })
	require.NoError(t, flag.Set("prefix", "TST:SYS2"))
	require.NoError(t, flag.Set("name-len-max", "40"))

	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "ATCA2", cfg.PortName)
	assert.Equal(t, "TST:SYS2", cfg.RecordPrefix)
	assert.Equal(t, 40, cfg.RecordNameLenMax)
	assert.Equal(t, "dict.txt", cfg.DictFile)
	assert.Equal(t, record.DefaultMaxMenu, cfg.MaxMenu)
}

func TestWriteDatabase(t *testing.T) {
	port := asyn.NewPort("P1", record.NumClasses)
	_, err := port.CreateParam(0, "Version_RO_0", record.ParamInt32)
	require.NoError(t, err)
	require.NoError(t, port.LoadRecord("ai", `PORT=P1,ADDR=0,P=TST,R=C:Version:Rd,PARAM=Version_RO_0`))

	path := filepath.Join(t.TempDir(), "out.db")
	require.NoError(t, writeDatabase(port, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `dbLoadRecords("db/ai.template"`))
}
