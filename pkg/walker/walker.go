// Package walker enumerates a register tree depth-first.
//
// Children are visited in the provider's native order. A replicated hub
// (Nelms > 1) is expanded into Nelms indexed instances, visited in
// increasing index order. A failure listing one subtree abandons that
// subtree only; its siblings are still visited.
package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// ErrSkipHub may be returned from EnterHub to skip the hub's children.
var ErrSkipHub = errors.New("skip hub")

// abortError stops the walk with err.
type abortError struct{ err error }

func (a *abortError) Error() string { return a.err.Error() }
func (a *abortError) Unwrap() error { return a.err }

// Abort wraps err so that returning it from a Visitor ends the walk. Walk
// then returns err itself.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

// abortCause returns the error wrapped by Abort, or nil.
func abortCause(err error) error {
	var a *abortError
	if errors.As(err, &a) {
		return a.err
	}
	return nil
}

// Tree is the part of cpsw.Tree the walker needs.
type Tree interface {
	Lookup(p cpsw.Path) (cpsw.Child, error)
	Children(p cpsw.Path) ([]cpsw.Child, error)
}

// Visitor receives traversal callbacks. Leaf and EnterHub errors other than
// ErrSkipHub and Abort are reported as branch errors and do not stop the
// walk.
type Visitor interface {
	EnterHub(p cpsw.Path, hub cpsw.Child) error
	Leaf(p cpsw.Path, leaf cpsw.Child) error
	ExitHub(p cpsw.Path, hub cpsw.Child)
}

// Funcs adapts plain functions to Visitor. Nil fields are no-ops.
type Funcs struct {
	OnHubEnter func(p cpsw.Path, hub cpsw.Child) error
	OnLeaf     func(p cpsw.Path, leaf cpsw.Child) error
	OnHubExit  func(p cpsw.Path, hub cpsw.Child)
}

func (f Funcs) EnterHub(p cpsw.Path, hub cpsw.Child) error {
	if f.OnHubEnter == nil {
		return nil
	}
	return f.OnHubEnter(p, hub)
}

func (f Funcs) Leaf(p cpsw.Path, leaf cpsw.Child) error {
	if f.OnLeaf == nil {
		return nil
	}
	return f.OnLeaf(p, leaf)
}

func (f Funcs) ExitHub(p cpsw.Path, hub cpsw.Child) {
	if f.OnHubExit != nil {
		f.OnHubExit(p, hub)
	}
}

// Config configures a walk.
type Config struct {
	// Logger receives branch errors. Nil disables logging.
	Logger *slog.Logger

	// OnBranchError is called for every abandoned subtree or failed leaf.
	OnBranchError func(p cpsw.Path, err error)
}

// Stats summarizes a walk.
type Stats struct {
	Hubs         int
	Leaves       int
	BranchErrors int
}

type walk struct {
	ctx   context.Context
	tree  Tree
	v     Visitor
	cfg   Config
	stats Stats
}

// Walk visits the hub at root and everything below it. It returns early
// only when ctx is cancelled, root itself cannot be resolved or a visitor
// aborts.
func Walk(ctx context.Context, tree Tree, root cpsw.Path, v Visitor, cfg Config) (Stats, error) {
	hub, err := tree.Lookup(root)
	if err != nil {
		return Stats{}, fmt.Errorf("walk %s: %w", root, err)
	}
	if !hub.IsHub() {
		return Stats{}, fmt.Errorf("walk %s: %w", root, cpsw.ErrNotHub)
	}

	w := &walk{ctx: ctx, tree: tree, v: v, cfg: cfg}
	if err := w.hub(root, hub); err != nil {
		return w.stats, err
	}
	return w.stats, nil
}

func (w *walk) branchError(p cpsw.Path, err error) {
	w.stats.BranchErrors++
	if w.cfg.Logger != nil {
		w.cfg.Logger.Warn("abandoning branch", "path", p.String(), "error", err)
	}
	if w.cfg.OnBranchError != nil {
		w.cfg.OnBranchError(p, err)
	}
}

// hub returns only context and abort errors; everything else is handled as
// a branch error.
func (w *walk) hub(p cpsw.Path, hub cpsw.Child) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.stats.Hubs++

	if err := w.v.EnterHub(p, hub); err != nil {
		if cause := abortCause(err); cause != nil {
			return cause
		}
		if !errors.Is(err, ErrSkipHub) {
			w.branchError(p, err)
		}
		return nil
	}
	defer w.v.ExitHub(p, hub)

	children, err := w.tree.Children(p)
	if err != nil {
		w.branchError(p, err)
		return nil
	}

	for _, c := range children {
		switch {
		case c.IsHub() && c.Nelms() > 1:
			for j := 0; j < c.Nelms(); j++ {
				if err := w.hub(p.ChildAt(c.Name(), j), c); err != nil {
					return err
				}
			}
		case c.IsHub():
			if err := w.hub(p.Child(c.Name()), c); err != nil {
				return err
			}
		default:
			if err := w.ctx.Err(); err != nil {
				return err
			}
			w.stats.Leaves++
			lp := p.Child(c.Name())
			if err := w.v.Leaf(lp, c); err != nil {
				if cause := abortCause(err); cause != nil {
					return cause
				}
				w.branchError(lp, err)
			}
		}
	}
	return nil
}
