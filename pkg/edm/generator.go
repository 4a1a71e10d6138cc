package edm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/naming"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/walker"
)

// Tree is the part of the register tree the generator needs.
type Tree interface {
	walker.Tree
	OpenScalarRO(p cpsw.Path) (cpsw.ScalarRO, error)
	OpenScalarRW(p cpsw.Path) (cpsw.ScalarRW, error)
	OpenCommand(p cpsw.Path) (cpsw.Command, error)
	OpenStream(p cpsw.Path) (cpsw.Stream, error)
}

// Stats counts what a generation produced.
type Stats struct {
	Screens int
	Leaves  int
	RO      int
	RW      int
	CMD     int
	STM     int

	// Skipped counts leaves directly under the root, which have no screen.
	Skipped int

	BranchErrors int
}

// Generator writes screens for one tree.
type Generator struct {
	config   Config
	tree     Tree
	resolver *naming.Resolver
	names    *record.Builder
}

// NewGenerator creates a generator. resolver supplies name prefixes and may
// be shared with a driver.
func NewGenerator(config Config, tree Tree, resolver *naming.Resolver) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	bc := record.DefaultConfig()
	bc.Prefix = config.RecordPrefix
	bc.NameLenMax = config.RecordNameLenMax
	bc.MaxMenu = config.MaxMenu
	bc.Logger = config.Logger
	names, err := record.NewBuilder(bc, tree)
	if err != nil {
		return nil, err
	}
	return &Generator{config: config, tree: tree, resolver: resolver, names: names}, nil
}

func (g *Generator) debugLog(msg string, args ...any) {
	if g.config.Logger != nil {
		g.config.Logger.Debug(msg, args...)
	}
}

// screen is one open screen file.
type screen struct {
	base    string
	page    int
	file    *os.File
	w       *bufio.Writer
	yStatus int
	yConfig int
	menuX   int
}

// run is the state of one Generate call.
type run struct {
	g     *Generator
	root  cpsw.Path
	menu  *screen
	stack []*screen
	menuY int
	seq   int
	stats Stats
	err   error
}

// Generate writes the menu and every screen below root into OutDir.
func (g *Generator) Generate(ctx context.Context, root cpsw.Path) (Stats, error) {
	if err := os.MkdirAll(g.config.OutDir, 0755); err != nil {
		return Stats{}, err
	}

	r := &run{g: g, root: root, menuY: g.config.MenuY0}
	menu, err := r.create(MenuFile)
	if err != nil {
		return Stats{}, err
	}
	r.menu = menu
	r.exec(menu, "header", header{W: g.config.MenuWidth, H: g.config.MenuHeight})

	_, walkErr := walker.Walk(ctx, g.tree, root, r, walker.Config{
		Logger: g.config.Logger,
		OnBranchError: func(p cpsw.Path, err error) {
			r.stats.BranchErrors++
		},
	})

	for len(r.stack) > 0 {
		r.pop()
	}
	r.close(menu)

	if walkErr != nil {
		return r.stats, walkErr
	}
	if r.err != nil {
		return r.stats, r.err
	}
	g.debugLog("screens generated", "dir", g.config.OutDir, "screens", r.stats.Screens)
	return r.stats, nil
}

func (r *run) create(name string) (*screen, error) {
	f, err := os.Create(filepath.Join(r.g.config.OutDir, name))
	if err != nil {
		return nil, err
	}
	return &screen{file: f, w: bufio.NewWriter(f)}, nil
}

// close flushes and closes the current page of s. Closing twice is a no-op.
func (r *run) close(s *screen) {
	if s.file == nil {
		return
	}
	if err := s.w.Flush(); err != nil && r.err == nil {
		r.err = err
	}
	if err := s.file.Close(); err != nil && r.err == nil {
		r.err = err
	}
	s.file, s.w = nil, nil
}

func (r *run) exec(s *screen, name string, data any) {
	if r.err != nil {
		return
	}
	if err := templates.ExecuteTemplate(s.w, name, data); err != nil {
		r.err = fmt.Errorf("write %s: %w", name, err)
	}
}

// open starts a page of the screen s: it creates the file, writes the
// header and titles, and adds a menu button for it.
func (r *run) open(s *screen) error {
	name := s.base
	if s.page > 0 {
		name += "_p" + strconv.Itoa(s.page)
	}
	name += ".edl"

	f, err := os.Create(filepath.Join(r.g.config.OutDir, name))
	if err != nil {
		return err
	}
	s.file, s.w = f, bufio.NewWriter(f)

	cfg := r.g.config
	r.exec(r.menu, "relatedDisplay", object{Name: name, X: s.menuX, Y: r.menuY})
	r.menuY += cfg.MenuYStep

	r.exec(s, "header", header{W: cfg.Width, H: cfg.Height})
	r.exec(s, "title", object{Name: "Status", X: titleStatusX, Y: cfg.Y0})
	r.exec(s, "title", object{Name: "Configuration", X: titleConfigX, Y: cfg.Y0})
	s.yStatus = cfg.Y0 + cfg.YStep
	s.yConfig = cfg.Y0 + cfg.YStep
	r.stats.Screens++
	return nil
}

func (r *run) pop() {
	s := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.close(s)
}

// next moves s to a new page when y has no room for another row.
func (r *run) next(s *screen, y int) error {
	if r.err != nil {
		return r.err
	}
	if y+r.g.config.YStep <= r.g.config.Height {
		return nil
	}
	r.close(s)
	s.page++
	if err := r.open(s); err != nil {
		if r.err == nil {
			r.err = err
		}
		return err
	}
	return nil
}

// EnterHub opens the screen of every hub below the root.
func (r *run) EnterHub(p cpsw.Path, hub cpsw.Child) error {
	if p.Equal(r.root) {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	seg, _ := p.Tail()
	base := strconv.Itoa(r.seq) + "_" + seg.Name
	if seg.HasIndex() {
		base += "_" + strconv.Itoa(seg.Index)
	}
	r.seq++

	s := &screen{base: base, menuX: r.g.config.MenuX0 + (len(r.stack)+1)*r.g.config.MenuXStep}
	if err := r.open(s); err != nil {
		return err
	}
	r.stack = append(r.stack, s)
	return nil
}

// ExitHub closes the screen opened by EnterHub.
func (r *run) ExitHub(p cpsw.Path, hub cpsw.Child) {
	if p.Equal(r.root) {
		return
	}
	r.pop()
}

// Leaf places the records of one register on the current screen.
func (r *run) Leaf(p cpsw.Path, leaf cpsw.Child) error {
	r.stats.Leaves++
	if len(r.stack) == 0 {
		r.stats.Skipped++
		return nil
	}
	s := r.stack[len(r.stack)-1]
	l := record.Leaf{
		Path:        p,
		Name:        leaf.Name(),
		Description: leaf.Description(),
		NamePrefix:  r.g.resolver.ResolvePrefix(p),
	}

	rw, err := r.g.tree.OpenScalarRW(p)
	switch {
	case err == nil:
		r.stats.RW++
		return r.rows(s, l, record.WritableScalar{Handle: rw})
	case !errors.Is(err, cpsw.ErrNotSupported):
		return err
	}

	ro, err := r.g.tree.OpenScalarRO(p)
	switch {
	case err == nil:
		r.stats.RO++
		return r.rows(s, l, record.ReadableScalar{Handle: ro})
	case !errors.Is(err, cpsw.ErrNotSupported):
		return err
	}

	if _, err := r.g.tree.OpenCommand(p); err == nil {
		r.stats.CMD++
		return nil
	}
	if _, err := r.g.tree.OpenStream(p); err == nil {
		r.stats.STM++
	}
	return nil
}

// rows places one row per record of a scalar. Writable rows go to the
// configuration column with an entry and a readback.
func (r *run) rows(s *screen, l record.Leaf, c record.Capability) error {
	res, err := r.g.names.Classify(l, c)
	if err != nil {
		return err
	}
	cfg := r.g.config
	for _, d := range res.Descriptors {
		label := l.Name
		if seg, _ := d.Path.Tail(); seg.HasIndex() {
			label += strconv.Itoa(seg.Index)
		}
		pv := PVMacro + ":" + d.RecordName

		if d.Class == record.ClassRW {
			if err := r.next(s, s.yConfig); err != nil {
				return err
			}
			readback := strings.TrimSuffix(pv, record.ClassRW.Suffix()) + record.ClassRO.Suffix()
			r.exec(s, "label", object{Name: label, X: colRWLabel, Y: s.yConfig})
			r.exec(s, "textEntry", object{Name: pv, X: colRWEntry, Y: s.yConfig})
			r.exec(s, "textUpdate", object{Name: readback, X: colRWReadback, Y: s.yConfig})
			s.yConfig += cfg.YStep
			continue
		}

		if err := r.next(s, s.yStatus); err != nil {
			return err
		}
		r.exec(s, "label", object{Name: label, X: colROLabel, Y: s.yStatus})
		r.exec(s, "textUpdate", object{Name: pv, X: colROUpdate, Y: s.yStatus})
		s.yStatus += cfg.YStep
	}
	return r.err
}
