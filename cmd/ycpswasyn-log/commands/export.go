package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
)

// csvHeader names the columns of a CSV export.
var csvHeader = []string{"timestamp", "session_id", "port", "layer", "category", "path", "type", "record", "seq"}

// eventWriter writes one exported event.
type eventWriter interface {
	write(ev log.Event) error
	flush() error
}

// RunExport writes every event of the log at path to output, or stdout if
// output is empty. format is jsonl or csv.
func RunExport(path, format, output string) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format %q (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	var ew eventWriter
	if format == "csv" {
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		ew = csvEvents{cw}
	} else {
		ew = jsonEvents{json.NewEncoder(w)}
	}

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return ew.flush()
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := ew.write(ev); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
}

type jsonEvents struct{ enc *json.Encoder }

func (j jsonEvents) write(ev log.Event) error { return j.enc.Encode(ev) }
func (j jsonEvents) flush() error             { return nil }

type csvEvents struct{ w *csv.Writer }

func (c csvEvents) write(ev log.Event) error {
	name, seq := "", ""
	if ev.Record != nil {
		name = ev.Record.Name
		seq = strconv.Itoa(ev.Record.Seq)
	}
	return c.w.Write([]string{
		ev.Timestamp.UTC().Format(timeFormat),
		ev.SessionID,
		ev.Port,
		ev.Layer.String(),
		ev.Category.String(),
		ev.Path,
		typeLabel(ev),
		name,
		seq,
	})
}

func (c csvEvents) flush() error {
	c.w.Flush()
	return c.w.Error()
}
