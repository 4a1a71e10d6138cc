package naming

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Entry is one substitution.
type Entry struct {
	Key   string
	Value string
}

// Dictionary maps substring keys to replacements.
//
// Lookup order is fixed: longer keys are tried first, and keys of equal
// length are tried in insertion order. A key that appears twice keeps its
// first position and takes the later value.
type Dictionary struct {
	entries []Entry
	seq     map[string]int
	order   []int
}

// NewDictionary creates a dictionary holding entries in the given order.
func NewDictionary(entries ...Entry) *Dictionary {
	d := &Dictionary{seq: make(map[string]int)}
	for _, e := range entries {
		d.Add(e.Key, e.Value)
	}
	return d
}

// DefaultTopDictionary returns the built-in top dictionary used when no
// top-dictionary file is configured.
func DefaultTopDictionary() *Dictionary {
	return NewDictionary(
		Entry{Key: "CarrierCore", Value: "C"},
		Entry{Key: "Bay0", Value: "B0"},
		Entry{Key: "Bay1", Value: "B1"},
		Entry{Key: "App", Value: "A"},
	)
}

// Add inserts or replaces a substitution. Empty keys are ignored.
func (d *Dictionary) Add(key, value string) {
	if key == "" {
		return
	}
	if d.seq == nil {
		d.seq = make(map[string]int)
	}
	if i, ok := d.seq[key]; ok {
		d.entries[i].Value = value
		return
	}
	d.seq[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: value})
	d.reorder()
}

func (d *Dictionary) reorder() {
	d.order = d.order[:0]
	for i := range d.entries {
		d.order = append(d.order, i)
	}
	sort.SliceStable(d.order, func(a, b int) bool {
		return len(d.entries[d.order[a]].Key) > len(d.entries[d.order[b]].Key)
	})
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns the entries in lookup order.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, 0, len(d.order))
	for _, i := range d.order {
		out = append(out, d.entries[i])
	}
	return out
}

// Match returns the first entry whose key is a substring of s.
// A nil dictionary matches nothing.
func (d *Dictionary) Match(s string) (Entry, bool) {
	if d == nil {
		return Entry{}, false
	}
	for _, i := range d.order {
		if strings.Contains(s, d.entries[i].Key) {
			return d.entries[i], true
		}
	}
	return Entry{}, false
}

// ReadPairs reads whitespace-separated two-field lines in file order. Blank
// lines and lines starting with '#' are skipped.
func ReadPairs(r io.Reader) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want two fields, got %q", line, text)
		}
		out = append(out, Entry{Key: fields[0], Value: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return out, nil
}

// ParseDictionary reads a dictionary in the ReadPairs format.
func ParseDictionary(r io.Reader) (*Dictionary, error) {
	entries, err := ReadPairs(r)
	if err != nil {
		return nil, fmt.Errorf("dictionary %w", err)
	}
	return NewDictionary(entries...), nil
}

// LoadDictionary reads a dictionary file.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d, err := ParseDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
