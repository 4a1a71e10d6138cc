package driver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/discovery"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/metrics"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/naming"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/walker"
)

// Driver errors.
var (
	ErrState     = errors.New("invalid driver state")
	ErrBusy      = errors.New("configuration operation in progress")
	ErrNoBinding = errors.New("no register bound to parameter")
)

// State is the session state of a Driver.
type State int32

const (
	StateInit State = iota
	StateTraversing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateTraversing:
		return "TRAVERSING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Sink materializes records. asyn.Port implements it.
type Sink interface {
	CreateParam(addr int, name string, t record.ParamType) (int, error)
	LoadRecord(template, params string) error
	DoCallbacksInt16Array(addr, index int, v []int16)
	DoCallbacksInt32Array(addr, index int, v []int32)
}

// Summary counts what one traversal produced.
type Summary struct {
	// Parameters per address class. A stream pair counts once.
	RO  int
	RW  int
	CMD int
	STM int

	Records      int
	Leaves       int
	Degraded     int
	BranchErrors int
	Misses       int
}

func (s Summary) String() string {
	return fmt.Sprintf("nRO=%d nRW=%d nCMD=%d nSTM=%d records=%d leaves=%d degraded=%d branchErrors=%d misses=%d",
		s.RO, s.RW, s.CMD, s.STM, s.Records, s.Leaves, s.Degraded, s.BranchErrors, s.Misses)
}

// streamName matches leaves probed for the stream capability.
var streamName = regexp.MustCompile(`Stream[0-9]`)

// Driver builds the record set of one register tree and serves it.
type Driver struct {
	config Config
	tree   cpsw.Tree
	sink   Sink

	state atomic.Int32

	events   log.Logger
	file     *log.FileLogger
	recorder *log.Recorder
	metrics  *metrics.Metrics
	browser  discovery.Browser

	resolver *naming.Resolver
	builder  *record.Builder

	// Session ledger, touched only by Init
	summary  Summary
	seq      int
	classSeq [record.NumClasses]int
	names    map[string]struct{}
	regMap   []string
	pvList   []string

	// Written once during Init, read-only afterwards
	bindings [record.NumClasses][]*record.Descriptor

	streams []*streamTask
	wg      sync.WaitGroup

	cfgMu     sync.Mutex
	cfgStatus ConfigStatus
	cfgErr    error
}

// New creates a driver over tree that materializes records into sink. A
// configuration that cannot hold a single record name is rejected here,
// before anything is created.
func New(config Config, tree cpsw.Tree, sink Sink) (*Driver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if tree == nil || sink == nil {
		return nil, errors.New("driver needs a tree and a sink")
	}
	d := &Driver{
		config:   config,
		tree:     tree,
		sink:     sink,
		recorder: log.NewRecorder(nil, config.PortName),
		names:    make(map[string]struct{}),
	}
	d.state.Store(int32(StateInit))
	return d, nil
}

// SetEventLogger sets an additional diagnostic event sink. Must be called
// before Init.
func (d *Driver) SetEventLogger(l log.Logger) {
	d.events = l
}

// SetMetrics sets the metrics collectors. Must be called before Init.
func (d *Driver) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// SetBrowser sets the mDNS browser used for mdns: address overrides.
func (d *Driver) SetBrowser(b discovery.Browser) {
	d.browser = b
}

// State returns the session state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Summary returns the counters of the last traversal.
func (d *Driver) Summary() Summary {
	return d.summary
}

// SessionID identifies the diagnostic session.
func (d *Driver) SessionID() string {
	return d.recorder.SessionID()
}

// RecordNames returns the full names of the created records in creation
// order.
func (d *Driver) RecordNames() []string {
	return append([]string(nil), d.pvList...)
}

func (d *Driver) debugLog(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, args...)
	}
}

func (d *Driver) infoLog(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, args...)
	}
}

func (d *Driver) warnLog(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Warn(msg, args...)
	}
}

func (d *Driver) setState(to State, reason string) {
	from := State(d.state.Swap(int32(to)))
	d.recorder.StateChange(log.StateEntitySession, from.String(), to.String(), reason)
}

// Init runs the traversal and materializes every record. It can run once.
// Errors returned are fatal for the session; per-branch problems are
// counted in the summary instead.
func (d *Driver) Init(ctx context.Context) (Summary, error) {
	if !d.state.CompareAndSwap(int32(StateInit), int32(StateTraversing)) {
		return Summary{}, fmt.Errorf("%w: init in %s", ErrState, d.State())
	}

	if err := d.openEventLog(); err != nil {
		return Summary{}, d.fail(err)
	}
	d.recorder.StateChange(log.StateEntitySession, StateInit.String(), StateTraversing.String(), "")

	d.applyIPOverride(ctx)

	if err := d.prepare(); err != nil {
		return Summary{}, d.fail(err)
	}

	var err error
	if d.config.RecordDictFile != "" {
		err = d.bindStatic(ctx)
	} else {
		err = d.walk(ctx)
	}
	if err != nil {
		return Summary{}, d.fail(err)
	}

	misses := d.resolver.Misses()
	for _, key := range misses.Keys() {
		d.recorder.Miss(key)
	}
	d.summary.Misses = misses.Len()
	d.metrics.SetDictionaryMisses(misses.Len())

	if err := d.writeDiagnostics(); err != nil {
		d.warnLog("writing diagnostics failed", "dir", d.config.DiagDir, "error", err)
	}

	d.startStreams()
	d.setState(StateDone, d.summary.String())
	d.infoLog("driver initialized", "port", d.config.PortName, "summary", d.summary.String())
	return d.summary, nil
}

func (d *Driver) fail(err error) error {
	d.setState(StateFailed, err.Error())
	return err
}

func (d *Driver) openEventLog() error {
	var file log.Logger
	if d.config.EventLog != "" {
		f, err := log.NewFileLogger(d.config.EventLog)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		d.file = f
		file = f
	}
	if d.events == nil && file == nil {
		return nil
	}
	d.recorder = log.NewRecorder(log.Tee(d.events, file), d.config.PortName)
	return nil
}

// addressable trees accept a target address override.
type addressable interface {
	IPAddr() string
	SetIPAddr(addr string)
}

func (d *Driver) applyIPOverride(ctx context.Context) {
	if d.config.IPAddr == "" {
		return
	}
	t, ok := d.tree.(addressable)
	if !ok {
		d.warnLog("tree does not take an address override", "override", d.config.IPAddr)
		return
	}
	b := d.browser
	if b == nil {
		b = discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	}
	addr, err := discovery.ResolveOverride(ctx, b, d.config.IPAddr)
	if err != nil {
		d.warnLog("ignoring address override", "override", d.config.IPAddr, "error", err)
		return
	}
	d.infoLog("address override", "from", t.IPAddr(), "to", addr)
	t.SetIPAddr(addr)
}

// prepare loads the dictionaries and creates the builder.
func (d *Driver) prepare() error {
	resolver, err := naming.LoadResolver(d.config.TopDictFile, d.config.DictFile)
	if err != nil {
		return err
	}
	d.resolver = resolver
	top, general := resolver.Sizes()
	d.debugLog("dictionaries loaded", "general", general, "top", top)

	b, err := record.NewBuilder(d.config.builderConfig(), d.tree)
	if err != nil {
		return err
	}
	d.builder = b
	return nil
}

func (d *Driver) rootPath() (cpsw.Path, error) {
	if d.config.Root == "" {
		return d.tree.Root(), nil
	}
	return cpsw.ParsePath(d.config.Root)
}

func (d *Driver) walk(ctx context.Context) error {
	root, err := d.rootPath()
	if err != nil {
		return fmt.Errorf("root %q: %w", d.config.Root, err)
	}
	stats, err := walker.Walk(ctx, d.tree, root, walker.Funcs{OnLeaf: d.onLeaf}, walker.Config{
		OnBranchError: d.branchError,
	})
	d.debugLog("walk finished", "hubs", stats.Hubs, "leaves", stats.Leaves)
	return err
}

func (d *Driver) branchError(p cpsw.Path, err error) {
	d.summary.BranchErrors++
	d.warnLog("abandoning branch", "path", p.String(), "error", err)
	d.recorder.BranchError(p.String(), err)
	d.metrics.BranchError()
}

func (d *Driver) onLeaf(p cpsw.Path, leaf cpsw.Child) error {
	err := d.bindLeaf(record.Leaf{
		Path:        p,
		Name:        leaf.Name(),
		Description: leaf.Description(),
		NamePrefix:  d.resolver.ResolvePrefix(p),
	})
	if errors.Is(err, record.ErrNameBudget) {
		return walker.Abort(err)
	}
	return err
}

// bindLeaf probes the capabilities of one leaf in the fixed order and
// materializes the records of each one present. The first failure other
// than ErrNotSupported abandons the rest of the leaf.
func (d *Driver) bindLeaf(l record.Leaf) error {
	d.summary.Leaves++
	d.regMap = append(d.regMap, l.Path.String())

	for class := record.ClassRO; class < record.NumClasses; class++ {
		if class == record.ClassSTM && !streamName.MatchString(l.Name) {
			continue
		}
		c, err := d.open(l.Path, class)
		if errors.Is(err, cpsw.ErrNotSupported) {
			continue
		}
		if err != nil {
			return fmt.Errorf("open %s: %w", class, err)
		}
		if err := d.classify(l, c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) open(p cpsw.Path, class record.AddrClass) (record.Capability, error) {
	switch class {
	case record.ClassRO:
		h, err := d.tree.OpenScalarRO(p)
		if err != nil {
			return nil, err
		}
		return record.ReadableScalar{Handle: h}, nil
	case record.ClassRW:
		h, err := d.tree.OpenScalarRW(p)
		if err != nil {
			return nil, err
		}
		return record.WritableScalar{Handle: h}, nil
	case record.ClassCMD:
		h, err := d.tree.OpenCommand(p)
		if err != nil {
			return nil, err
		}
		return record.Command{Handle: h}, nil
	case record.ClassSTM:
		h, err := d.tree.OpenStream(p)
		if err != nil {
			return nil, err
		}
		return record.Stream{Handle: h}, nil
	}
	return nil, cpsw.ErrNotSupported
}

func (d *Driver) classify(l record.Leaf, c record.Capability) error {
	res, err := d.builder.Classify(l, c)
	if err != nil {
		return err
	}
	if res.Degraded {
		d.summary.Degraded++
		d.metrics.Degraded()
		entries := 0
		if h, ok := record.ScalarOf(c); ok {
			entries = len(h.Enum())
		}
		d.recorder.Degraded(l.Path.String(), entries, d.config.MaxMenu, res.Descriptors[0].Kind.String())
	}

	if s, ok := c.(record.Stream); ok {
		return d.materializeStream(l, s, res.Descriptors)
	}
	for _, desc := range res.Descriptors {
		if _, err := d.materialize(desc, d.nextClassSeq(desc.Class)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) nextClassSeq(class record.AddrClass) int {
	n := d.classSeq[class]
	d.classSeq[class]++
	switch class {
	case record.ClassRO:
		d.summary.RO++
	case record.ClassRW:
		d.summary.RW++
	case record.ClassCMD:
		d.summary.CMD++
	case record.ClassSTM:
		d.summary.STM++
	}
	return n
}

// materialize creates the parameter and record of one descriptor and binds
// the parameter to the descriptor's capability.
func (d *Driver) materialize(desc record.Descriptor, classSeq int) (int, error) {
	name, err := d.uniqueName(desc.RecordName)
	if err != nil {
		return 0, err
	}
	desc.RecordName = name
	desc.ParamName = record.ParamName(desc.Leaf, desc.ParamTag(), classSeq)
	addr := int(desc.Class)

	index, err := d.sink.CreateParam(addr, desc.ParamName, desc.ParamType)
	if err != nil {
		return 0, fmt.Errorf("create parameter %s: %w", desc.ParamName, err)
	}
	if err := d.bind(addr, index, desc); err != nil {
		return 0, err
	}
	if err := d.sink.LoadRecord(desc.Template, desc.Params(d.config.PortName, d.config.RecordPrefix)); err != nil {
		return 0, fmt.Errorf("load record %s: %w", desc.RecordName, err)
	}

	d.pvList = append(d.pvList, d.config.RecordPrefix+":"+desc.RecordName)
	d.summary.Records++
	d.recorder.RecordCreated(desc.Path.String(), log.RecordEvent{
		Name:      desc.RecordName,
		Kind:      desc.Kind.String(),
		Template:  desc.Template,
		ParamName: desc.ParamName,
		ParamType: desc.ParamType.String(),
		AddrClass: addr,
		Seq:       d.seq,
	})
	d.metrics.RecordCreated(desc.Kind.String(), desc.Class.String())
	d.debugLog("record created", "name", desc.RecordName, "template", desc.Template, "param", desc.ParamName)
	d.seq++
	return index, nil
}

// uniqueName returns name, or a disambiguated variant when an earlier record
// of the session already took it.
func (d *Driver) uniqueName(name string) (string, error) {
	if _, taken := d.names[name]; !taken {
		d.names[name] = struct{}{}
		return name, nil
	}
	for n := 1; ; n++ {
		c, err := d.builder.Disambiguate(name, n)
		if err != nil {
			return "", err
		}
		if _, taken := d.names[c]; !taken {
			d.debugLog("record name collision", "name", name, "renamed", c)
			d.names[c] = struct{}{}
			return c, nil
		}
	}
}

func (d *Driver) bind(addr, index int, desc record.Descriptor) error {
	tbl := d.bindings[addr]
	for len(tbl) <= index {
		tbl = append(tbl, nil)
	}
	if tbl[index] != nil {
		return fmt.Errorf("parameter %d at address %d already bound to %s", index, addr, tbl[index].Path)
	}
	tbl[index] = &desc
	d.bindings[addr] = tbl
	return nil
}

// Close flushes and closes the event log. Stream tasks are not stopped;
// they end when the provider interrupts their streams.
func (d *Driver) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}
