package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	RecordsByKind    map[string]int
	Sessions         map[string]*SessionStats
	Misses           int
	Degraded         int
	BranchErrors     int
	IOErrors         int
	Frames           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for one driver session.
type SessionStats struct {
	Port      string
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Records   int
	// FinalState is the last session state reported.
	FinalState string
}

// Collect reads the log file and aggregates its events.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		RecordsByKind:    make(map[string]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{Port: event.Port, FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}

		switch {
		case event.Record != nil:
			stats.RecordsByKind[event.Record.Kind]++
			sess.Records++
		case event.Miss != nil:
			stats.Misses++
		case event.Degrade != nil:
			stats.Degraded++
		case event.Frame != nil:
			stats.Frames++
		case event.IO != nil:
			stats.IOErrors++
		case event.Error != nil && event.Layer == log.LayerTree:
			stats.BranchErrors++
		case event.StateChange != nil && event.StateChange.Entity == log.StateEntitySession:
			sess.FinalState = event.StateChange.NewState
		}
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Driver Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTree, log.LayerRecord, log.LayerStream, log.LayerRuntime} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryRecord, log.CategoryDiagnostic, log.CategoryState, log.CategoryError, log.CategoryData} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.RecordsByKind) > 0 {
		fmt.Fprintln(w, "Records by Kind:")
		kinds := make([]string, 0, len(stats.RecordsByKind))
		for k := range stats.RecordsByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-12s %d\n", k+":", stats.RecordsByKind[k])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] port %s, %d events, %d records, duration %s\n",
				shortenID(s.id), s.stats.Port, s.stats.Events, s.stats.Records, duration)
			if s.stats.FinalState != "" {
				fmt.Fprintf(w, "           State: %s\n", s.stats.FinalState)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Dictionary misses: %d\n", stats.Misses)
	fmt.Fprintf(w, "Degraded menus:    %d\n", stats.Degraded)
	fmt.Fprintf(w, "Branch errors:     %d\n", stats.BranchErrors)
	fmt.Fprintf(w, "Stream frames:     %d\n", stats.Frames)
	if stats.IOErrors > 0 {
		fmt.Fprintf(w, "I/O errors:        %d\n", stats.IOErrors)
	}
}
