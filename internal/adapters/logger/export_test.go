package logger

// Exported for white-box testing.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// EntryMessage returns the message of an entry returned by CollectErrorEntries.
func EntryMessage(e errorEntry) string { return e.message }

// EntryKeys returns the metadata keys of an entry, in output order.
func EntryKeys(e errorEntry) []string {
	keys := make([]string, 0, len(e.metadata))
	for _, f := range e.metadata {
		keys = append(keys, f.key)
	}
	return keys
}
