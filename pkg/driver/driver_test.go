package driver

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/asyn"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/discovery"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

const testTree = `
ipAddr: 10.0.1.102
root:
  name: mmio
  children:
    - name: AmcCarrierCore
      children:
        - name: Version
          sizeBits: 32
          description: firmware version
          values: [7]
        - name: Scratch
          access: RW
          sizeBits: 32
        - name: Reset
          class: command
          sequence:
            - {path: Scratch, value: 0}
    - name: Bay0
      children:
        - name: ChannelReg
          nelms: 2
          children:
            - name: Enable
              access: RW
              sizeBits: 1
              enums: [{name: "False", value: 0}, {name: "True", value: 1}]
            - name: Mode
              access: RW
              sizeBits: 2
              nelms: 3
              enums: [{name: Off, value: 0}, {name: On, value: 1}, {name: Auto, value: 2}]
    - name: App
      children:
        - name: Bytes
          sizeBits: 8
          nelms: 4
          values: [1, 2, 3, 4]
        - name: Stream0
          class: stream
`

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PortName = "P1"
	cfg.RecordPrefix = "TST"
	cfg.StreamMaxSize = 4096
	return cfg
}

type fixture struct {
	tree   *cpsw.MemTree
	port   *asyn.Port
	driver *Driver
}

func newFixture(t *testing.T, doc string, mutate func(*Config)) *fixture {
	t.Helper()
	tree, err := cpsw.ParseTree([]byte(doc))
	require.NoError(t, err)

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	port := asyn.NewPort(cfg.PortName, record.NumClasses)
	d, err := New(cfg, tree, port)
	require.NoError(t, err)
	port.SetHandler(d)

	t.Cleanup(func() {
		tree.Interrupt()
		d.Wait()
		d.Close()
	})
	return &fixture{tree: tree, port: port, driver: d}
}

func (f *fixture) init(t *testing.T) Summary {
	t.Helper()
	s, err := f.driver.Init(context.Background())
	require.NoError(t, err)
	return s
}

func TestInitMaterializesRecords(t *testing.T) {
	f := newFixture(t, testTree, nil)
	s := f.init(t)

	assert.Equal(t, Summary{RO: 11, RW: 9, CMD: 1, STM: 1, Records: 23, Leaves: 9, Misses: 1}, s)
	assert.Equal(t, StateDone, f.driver.State())

	want := []string{
		"TST:C:Version:Rd",
		"TST:C:Scratch:Rd",
		"TST:C:Scratch:St",
		"TST:C:Reset:Ex",
		"TST:B0:Cha0:Enable:Rd",
		"TST:B0:Cha0:Enable:St",
		"TST:B0:Cha0:Mode0:Rd",
		"TST:B0:Cha0:Mode1:Rd",
		"TST:B0:Cha0:Mode2:Rd",
		"TST:B0:Cha0:Mode0:St",
	}
	assert.Equal(t, want, f.driver.RecordNames()[:len(want)])

	names := f.driver.RecordNames()
	assert.Contains(t, names, "TST:B0:Cha1:Mode2:St")
	assert.Contains(t, names, "TST:A:Bytes:Rd")
	assert.Contains(t, names, "TST:A:Stream0:16")
	assert.Contains(t, names, "TST:A:Stream0:32")

	rec, ok := f.port.Record("TST:B0:Cha0:Enable:St")
	require.True(t, ok)
	assert.Equal(t, record.TemplateMBBO, rec.Template)
	assert.Equal(t, "Enable_RW_1", rec.Field("PARAM"))
	assert.Equal(t, "1", rec.Field("NOBT"))

	rec, ok = f.port.Record("TST:A:Bytes:Rd")
	require.True(t, ok)
	assert.Equal(t, record.TemplateWaveform8In, rec.Template)
	assert.Equal(t, "4", rec.Field("N"))

	r16, _ := f.port.Record("TST:A:Stream0:16")
	r32, _ := f.port.Record("TST:A:Stream0:32")
	assert.Equal(t, "Stream0_STM16_0", r16.Field("PARAM"))
	assert.Equal(t, "Stream0_STM32_0", r32.Field("PARAM"))
}

func TestRecordNameRules(t *testing.T) {
	f := newFixture(t, testTree, func(c *Config) { c.RecordNameLenMax = 18 })
	f.init(t)

	seen := make(map[string]bool)
	for _, n := range f.driver.RecordNames() {
		assert.LessOrEqual(t, len(n), 18, n)
		assert.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
}

func TestInitRunsOnce(t *testing.T) {
	f := newFixture(t, testTree, nil)
	f.init(t)
	_, err := f.driver.Init(context.Background())
	assert.ErrorIs(t, err, ErrState)
}

func TestNewRejectsNameBudget(t *testing.T) {
	tree, err := cpsw.ParseTree([]byte(testTree))
	require.NoError(t, err)
	cfg := testConfig()
	cfg.RecordPrefix = "ABCDEF"
	cfg.RecordNameLenMax = 10

	_, err = New(cfg, tree, asyn.NewPort("P1", record.NumClasses))
	assert.ErrorIs(t, err, ErrNameBudget)
}

func TestCollidingNamesAreDisambiguated(t *testing.T) {
	const doc = `
root:
  name: mmio
  children:
    - name: AppA
      children:
        - name: Version
    - name: AppB
      children:
        - name: Version
`
	f := newFixture(t, doc, nil)
	f.init(t)
	assert.Equal(t, []string{"TST:A:Version:Rd", "TST:A:Version_1:Rd"}, f.driver.RecordNames())
}

const fanTree = `
root:
  name: mmio
  children:
    - name: Hub
      nelms: 3
      children:
        - name: Reg
`

func TestDisambiguationKeepsNameBudget(t *testing.T) {
	f := newFixture(t, fanTree, func(c *Config) {
		c.RecordPrefix = "P"
		c.RecordNameLenMax = 8
	})
	f.init(t)

	names := f.driver.RecordNames()
	require.Len(t, names, 3)
	seen := make(map[string]bool)
	for _, n := range names {
		assert.LessOrEqual(t, len(n), 8, n)
		assert.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
}

func TestDisambiguationOverBudgetFailsInit(t *testing.T) {
	f := newFixture(t, fanTree, func(c *Config) {
		c.RecordPrefix = "P"
		c.RecordNameLenMax = 6
	})
	_, err := f.driver.Init(context.Background())
	assert.ErrorIs(t, err, ErrNameBudget)
	for _, n := range f.driver.RecordNames() {
		assert.LessOrEqual(t, len(n), 6, n)
	}
}

func TestGeneralDictionaryAndDiagnostics(t *testing.T) {
	dir := t.TempDir()
	dict := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(dict, []byte("ChannelReg Ch\n"), 0644))
	diag := filepath.Join(dir, "diag")

	f := newFixture(t, testTree, func(c *Config) {
		c.DictFile = dict
		c.DiagDir = diag
	})
	s := f.init(t)
	assert.Equal(t, 0, s.Misses)
	assert.Contains(t, f.driver.RecordNames(), "TST:B0:Ch1:Enable:Rd")

	pv, err := os.ReadFile(filepath.Join(diag, PVListFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(pv)), "\n")
	assert.Len(t, lines, s.Records)

	regs, err := os.ReadFile(filepath.Join(diag, RegMapFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(regs), "/mmio/AmcCarrierCore/Version\n"), string(regs))

	misses, err := os.ReadFile(filepath.Join(diag, MissFile))
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(misses)))
}

func TestMissesWritten(t *testing.T) {
	diag := t.TempDir()
	f := newFixture(t, testTree, func(c *Config) { c.DiagDir = diag })
	f.init(t)

	misses, err := os.ReadFile(filepath.Join(diag, MissFile))
	require.NoError(t, err)
	assert.Equal(t, "ChannelReg\n", string(misses))
}

func TestTopDictionaryFile(t *testing.T) {
	top := filepath.Join(t.TempDir(), "top.txt")
	require.NoError(t, os.WriteFile(top, []byte("mmio M\n"), 0644))

	f := newFixture(t, testTree, func(c *Config) { c.TopDictFile = top })
	f.init(t)
	assert.Contains(t, f.driver.RecordNames(), "TST:M:Amc:Version:Rd")
}

type failingSink struct {
	*asyn.Port
	failOn string
}

func (s failingSink) LoadRecord(template, params string) error {
	if strings.Contains(params, "R="+s.failOn+",") {
		return errors.New("template not found")
	}
	return s.Port.LoadRecord(template, params)
}

func TestLeafFailureIsIsolated(t *testing.T) {
	tree, err := cpsw.ParseTree([]byte(testTree))
	require.NoError(t, err)
	port := asyn.NewPort("P1", record.NumClasses)
	d, err := New(testConfig(), tree, failingSink{Port: port, failOn: "C:Scratch:Rd"})
	require.NoError(t, err)
	t.Cleanup(func() {
		tree.Interrupt()
		d.Wait()
	})

	s, err := d.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.BranchErrors)

	names := d.RecordNames()
	assert.NotContains(t, names, "TST:C:Scratch:St")
	assert.Contains(t, names, "TST:C:Reset:Ex")
	assert.Contains(t, names, "TST:A:Stream0:32")
}

func TestEventLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")
	mem := &memLogger{}
	f := newFixture(t, testTree, func(c *Config) { c.EventLog = path })
	f.driver.SetEventLogger(mem)
	s := f.init(t)
	require.NoError(t, f.driver.Close())

	events, err := log.ReadAll(path, log.Filter{})
	require.NoError(t, err)
	records := 0
	for _, e := range events {
		if e.Record != nil {
			records++
			assert.Equal(t, f.driver.SessionID(), e.SessionID)
			assert.Equal(t, "P1", e.Port)
		}
	}
	assert.Equal(t, s.Records, records)
	assert.Equal(t, s.Records, mem.records())
}

type memLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (m *memLogger) Log(e log.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *memLogger) records() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Record != nil {
			n++
		}
	}
	return n
}

func TestIPOverride(t *testing.T) {
	f := newFixture(t, testTree, func(c *Config) { c.IPAddr = "192.168.1.7" })
	f.init(t)
	assert.Equal(t, "192.168.1.7", f.tree.IPAddr())

	f = newFixture(t, testTree, func(c *Config) { c.IPAddr = "not-an-address" })
	f.init(t)
	assert.Equal(t, "10.0.1.102", f.tree.IPAddr())
}

type fakeBrowser []discovery.Target

func (b fakeBrowser) Browse(ctx context.Context) (<-chan discovery.Target, error) {
	out := make(chan discovery.Target, len(b))
	for _, t := range b {
		out <- t
	}
	close(out)
	return out, nil
}

func TestIPOverrideMDNS(t *testing.T) {
	f := newFixture(t, testTree, func(c *Config) { c.IPAddr = "mdns:shm-crate1" })
	f.driver.SetBrowser(fakeBrowser{
		{Instance: "other", IPv4: []net.IP{net.ParseIP("10.0.0.1")}},
		{Instance: "shm-crate1", IPv4: []net.IP{net.ParseIP("10.0.0.9")}},
	})
	f.init(t)
	assert.Equal(t, "10.0.0.9", f.tree.IPAddr())
}

func TestStaticRecordDictionary(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "records.txt")
	content := `
/mmio/AmcCarrierCore/Version FW:VER
/mmio/Bay0/ChannelReg[1]/Enable CH1:EN
/mmio/Nope X
/mmio/Bay0 HUB
`
	require.NoError(t, os.WriteFile(dict, []byte(content), 0644))

	f := newFixture(t, testTree, func(c *Config) { c.RecordDictFile = dict })
	s := f.init(t)

	assert.Equal(t, []string{"TST:FW:VER:Rd", "TST:CH1:EN:Rd", "TST:CH1:EN:St"}, f.driver.RecordNames())
	assert.Equal(t, 2, s.BranchErrors)
	assert.Equal(t, 2, s.Leaves)
}

func TestStreamReaderPublishes(t *testing.T) {
	f := newFixture(t, testTree, nil)
	f.init(t)

	frame := []byte{0x10, 0x00, 0, 0, 0, 0, 0, 0, 1, 0, 2, 0, 0xee}
	require.NoError(t, f.tree.Push(mustPath(t, "/mmio/App/Stream0"), frame))

	require.Eventually(t, func() bool {
		_, err := f.port.Get("TST:A:Stream0:32")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	v, err := f.port.Get("TST:A:Stream0:16")
	require.NoError(t, err)
	assert.Equal(t, "1 2", v)
	v, err = f.port.Get("TST:A:Stream0:32")
	require.NoError(t, err)
	assert.Equal(t, "131073", v)

	stats := f.driver.StreamStats()
	require.Len(t, stats, 1)
	assert.Equal(t, "/mmio/App/Stream0", stats[0].Path)
	assert.Equal(t, uint64(1), stats[0].Frames)
	assert.Equal(t, uint32(1), stats[0].LastFrame)

	f.tree.Interrupt()
	f.driver.Wait()
}

func mustPath(t *testing.T, s string) cpsw.Path {
	t.Helper()
	p, err := cpsw.ParsePath(s)
	require.NoError(t, err)
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
