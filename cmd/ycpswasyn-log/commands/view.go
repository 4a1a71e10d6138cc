// Package commands implements the ycpswasyn-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
)

// timeFormat is the timestamp layout of every command's output.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer    *log.Layer
	Category *log.Category

	// PathPrefix keeps events below a register path.
	PathPrefix string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] LAYER Type path
	ts := event.Timestamp.UTC().Format(timeFormat)
	fmt.Fprintf(w, "%s [session:%s] %s %s", ts, shortenID(event.SessionID), event.Layer, typeLabel(event))
	if event.Path != "" {
		fmt.Fprintf(w, " %s", event.Path)
	}
	fmt.Fprintln(w)

	switch {
	case event.Record != nil:
		formatRecordDetails(w, event.Record)
	case event.Miss != nil:
		fmt.Fprintf(w, "  Segment: %s\n", event.Miss.Segment)
	case event.Degrade != nil:
		fmt.Fprintf(w, "  Entries: %d (max %d), fell back to %s\n",
			event.Degrade.Entries, event.Degrade.Max, event.Degrade.Kind)
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.IO != nil:
		formatIODetails(w, event.IO)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload of the event.
func typeLabel(event log.Event) string {
	switch {
	case event.Record != nil:
		return "Record"
	case event.Miss != nil:
		return "Miss"
	case event.Degrade != nil:
		return "Degraded"
	case event.Frame != nil:
		return "Frame"
	case event.StateChange != nil:
		return "State"
	case event.IO != nil:
		return "IOError"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatRecordDetails(w io.Writer, rec *log.RecordEvent) {
	fmt.Fprintf(w, "  Name: %s\n", rec.Name)
	fmt.Fprintf(w, "  Template: %s  Kind: %s\n", rec.Template, rec.Kind)
	fmt.Fprintf(w, "  Param: %s (%s) addr %d seq %d\n", rec.ParamName, rec.ParamType, rec.AddrClass, rec.Seq)
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes  Frame: %d\n", frame.Size, frame.FrameNumber)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatIODetails(w io.Writer, e *log.IOEvent) {
	fmt.Fprintf(w, "  %s %s param %s addr %d\n", e.Direction, e.Function, e.ParamName, e.AddrClass)
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "tree":
		return log.LayerTree, nil
	case "record":
		return log.LayerRecord, nil
	case "stream":
		return log.LayerStream, nil
	case "runtime":
		return log.LayerRuntime, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be tree, record, stream, or runtime)", s)
	}
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "record":
		return log.CategoryRecord, nil
	case "diagnostic":
		return log.CategoryDiagnostic, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "data":
		return log.CategoryData, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be record, diagnostic, state, error, or data)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		Layer:      filter.Layer,
		Category:   filter.Category,
		PathPrefix: filter.PathPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
