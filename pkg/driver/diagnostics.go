package driver

import (
	"bufio"
	"os"
	"path/filepath"
)

// Diagnostic file names under Config.DiagDir.
const (
	RegMapFile = "regMap.txt"
	PVListFile = "pvList.txt"
	MissFile   = "keysNotFound.txt"
)

func (d *Driver) writeDiagnostics() error {
	dir := d.config.DiagDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, RegMapFile), d.regMap); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, PVListFile), d.pvList); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, MissFile))
	if err != nil {
		return err
	}
	if _, err := d.resolver.Misses().WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
