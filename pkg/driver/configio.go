package driver

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/persistence"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/version"
)

// ConfigStatus is the state of the last save or load request.
type ConfigStatus int

const (
	ConfigIdle ConfigStatus = iota
	ConfigProcessing
	ConfigSuccess
	ConfigError
)

func (s ConfigStatus) String() string {
	switch s {
	case ConfigIdle:
		return "IDLE"
	case ConfigProcessing:
		return "PROCESSING"
	case ConfigSuccess:
		return "SUCCESS"
	case ConfigError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ErrNoSnapshot is reported when a load finds no saved configuration.
var ErrNoSnapshot = errors.New("no saved configuration")

// SaveConfig dumps the register configuration to path in the background.
// Progress is reported through ConfigStatus.
func (d *Driver) SaveConfig(path string) error {
	return d.startConfigOp("save", path, d.saveConfig)
}

// LoadConfig applies the configuration saved at path in the background.
func (d *Driver) LoadConfig(path string) error {
	return d.startConfigOp("load", path, d.loadConfig)
}

// ConfigStatus returns the state of the last request and its error.
func (d *Driver) ConfigStatus() (ConfigStatus, error) {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	return d.cfgStatus, d.cfgErr
}

func (d *Driver) startConfigOp(op, path string, fn func(path string) error) error {
	if d.State() != StateDone {
		return fmt.Errorf("%w: %s in %s", ErrState, op, d.State())
	}

	d.cfgMu.Lock()
	if d.cfgStatus == ConfigProcessing {
		d.cfgMu.Unlock()
		return ErrBusy
	}
	prev := d.cfgStatus
	d.cfgStatus, d.cfgErr = ConfigProcessing, nil
	d.cfgMu.Unlock()

	d.recorder.StateChange(log.StateEntityConfig, prev.String(), ConfigProcessing.String(), op+" "+path)

	go func() {
		err := fn(path)
		status, result, reason := ConfigSuccess, "success", op+" "+path
		if err != nil {
			status, result, reason = ConfigError, "error", err.Error()
			d.warnLog("configuration "+op+" failed", "path", path, "error", err)
		}

		d.cfgMu.Lock()
		d.cfgStatus, d.cfgErr = status, err
		d.cfgMu.Unlock()

		d.recorder.StateChange(log.StateEntityConfig, ConfigProcessing.String(), status.String(), reason)
		d.metrics.ConfigOperation(op, result)
	}()
	return nil
}

func (d *Driver) saveConfig(path string) error {
	var buf bytes.Buffer
	if err := d.tree.DumpConfig(&buf); err != nil {
		return fmt.Errorf("dump config: %w", err)
	}
	snap := &persistence.Snapshot{Port: d.config.PortName, Session: d.SessionID(), Driver: version.Version}
	if err := snap.SetDocument(buf.Bytes()); err != nil {
		return err
	}
	return persistence.NewSnapshotStore(path).Save(snap)
}

func (d *Driver) loadConfig(path string) error {
	snap, err := persistence.NewSnapshotStore(path).Load()
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, path)
	}
	if err := version.CheckWriter(snap.Driver); err != nil {
		return err
	}
	if !snap.HasDocument() {
		return fmt.Errorf("%w: %s", persistence.ErrNoDocument, path)
	}
	data, err := snap.DocumentBytes()
	if err != nil {
		return err
	}
	if err := d.tree.LoadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("apply config: %w", err)
	}
	return nil
}
