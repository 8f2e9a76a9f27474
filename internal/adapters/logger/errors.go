package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/bld/internal/ui/style"
)

// detailedError is implemented by go.trai.ch/zerr errors.
type detailedError interface {
	Message() string
	Metadata() map[string]any
}

type metaField struct {
	key   string
	value any
}

// errorEntry is one level of an error chain.
type errorEntry struct {
	message  string
	metadata []metaField
}

// collectErrorEntries flattens an error chain into one entry per message.
// Traversal stops at the first error that is neither a zerr error nor a
// multi-error, since its Error() already includes its own causes. The
// branches of a multi-error are flattened in order. Metadata attached to a
// zerr error without a message is carried over to the next entry.
func collectErrorEntries(err error) []errorEntry {
	c := &entryCollector{}
	c.walk(err)

	if len(c.pending) > 0 {
		if len(c.entries) == 0 {
			return []errorEntry{{message: err.Error(), metadata: c.pending}}
		}
		last := &c.entries[len(c.entries)-1]
		last.metadata = append(last.metadata, c.pending...)
	}
	return c.entries
}

type entryCollector struct {
	entries []errorEntry
	pending []metaField
}

func (c *entryCollector) walk(err error) {
	for current := err; current != nil; current = errors.Unwrap(current) {
		switch e := current.(type) {
		case detailedError:
			fields := append(c.pending, sortedFields(e.Metadata())...)
			c.pending = nil
			if e.Message() == "" {
				c.pending = fields
				continue
			}
			c.entries = append(c.entries, errorEntry{message: e.Message(), metadata: fields})
		case interface{ Unwrap() []error }:
			for _, branch := range e.Unwrap() {
				c.walk(branch)
			}
			return
		default:
			c.entries = append(c.entries, errorEntry{message: current.Error(), metadata: c.pending})
			c.pending = nil
			return
		}
	}
}

func sortedFields(meta map[string]any) []metaField {
	fields := make([]metaField, 0, len(meta))
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		fields = append(fields, metaField{key: k, value: meta[k]})
	}
	return fields
}

// formatErrorEntries renders the entries as a headline followed by an indented
// list of causes. Metadata is printed under the entry it belongs to.
func formatErrorEntries(entries []errorEntry) string {
	var lines []string

	for i, e := range entries {
		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    "+style.Arrow+" ", "      "
		}

		msgLines := strings.Split(e.message, "\n")
		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, f := range e.metadata {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, f.key, f.value))
		}
	}

	return strings.Join(lines, "\n")
}
