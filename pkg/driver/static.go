package driver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/naming"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// bindStatic binds the records listed in the record dictionary file. Each
// line names a register path and the record name base to use for it; no
// prefix is resolved.
func (d *Driver) bindStatic(ctx context.Context) error {
	f, err := os.Open(d.config.RecordDictFile)
	if err != nil {
		return fmt.Errorf("open record dictionary: %w", err)
	}
	defer f.Close()

	entries, err := naming.ReadPairs(f)
	if err != nil {
		return fmt.Errorf("record dictionary %s: %w", d.config.RecordDictFile, err)
	}
	d.debugLog("record dictionary loaded", "entries", len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := cpsw.ParsePath(e.Key)
		if err != nil {
			d.branchError(cpsw.Path{}, fmt.Errorf("%q: %w", e.Key, err))
			continue
		}
		leaf, err := d.tree.Lookup(p)
		if err != nil {
			d.branchError(p, err)
			continue
		}
		if leaf.IsHub() {
			d.branchError(p, fmt.Errorf("%s names a hub", p))
			continue
		}
		err = d.bindLeaf(record.Leaf{
			Path:        p,
			Name:        leaf.Name(),
			Description: leaf.Description(),
			RecordBase:  e.Value,
		})
		if errors.Is(err, record.ErrNameBudget) {
			return err
		}
		if err != nil {
			d.branchError(p, err)
		}
	}
	return nil
}
