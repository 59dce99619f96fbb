package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/frederic-klein/pluginver/internal/pattern"
)

var validate = validator.New()

// Row is the fixed part of a catalog document element. Every plugin adds
// its own identifier field next to these, e.g. "apoc" or "gds".
type Row struct {
	Neo4j string `json:"neo4j" validate:"required" jsonschema:"title=Neo4j version pattern,description=Exact version (5.0.0) or minor line wildcard (4.4.x / 4.4.*),pattern=^[0-9]+\\.[0-9]+\\.([0-9]+|x|\\*)$"`
	Jar   string `json:"jar" validate:"required" jsonschema:"title=Artifact location,description=Download URI or file path of the plugin jar"`
}

// RowWarning describes a catalog row that was skipped.
type RowWarning struct {
	PluginID string
	Index    int
	Err      error
}

func (w RowWarning) Error() string {
	return fmt.Sprintf("%s catalog row %d: %v", w.PluginID, w.Index, w.Err)
}

func (w RowWarning) Unwrap() error {
	return w.Err
}

// Decode reads a catalog document for pluginID. field names the plugin's
// identifier key in each row; it may be empty when the plugin has none.
//
// A document that is not a JSON array fails as a whole. Individual rows that
// cannot be used are skipped and reported in the warnings.
func Decode(pluginID, field string, data []byte) ([]Entry, []RowWarning, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, nil, fmt.Errorf("parsing %s catalog: %w", pluginID, err)
	}

	var entries []Entry
	var warnings []RowWarning
	for i, raw := range rows {
		entry, err := decodeRow(pluginID, field, raw)
		if err != nil {
			warnings = append(warnings, RowWarning{PluginID: pluginID, Index: i, Err: err})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, warnings, nil
}

func decodeRow(pluginID, field string, raw json.RawMessage) (Entry, error) {
	// Keys match exactly; encoding/json struct decoding would fold case.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}, fmt.Errorf("decoding row: %w", err)
	}

	var row Row
	var err error
	if row.Neo4j, err = stringField(fields, "neo4j"); err != nil {
		return Entry{}, err
	}
	if row.Jar, err = stringField(fields, "jar"); err != nil {
		return Entry{}, err
	}
	if err := validate.Struct(row); err != nil {
		return Entry{}, fmt.Errorf("validating row: %w", err)
	}

	p, err := pattern.Parse(row.Neo4j)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{PluginID: pluginID, Pattern: p, Artifact: row.Jar}
	if field == "" {
		return entry, nil
	}
	if value, ok := fields[field]; ok {
		entry.PluginVersion, err = flexString(value)
		if err != nil {
			return Entry{}, fmt.Errorf("field %q: %w", field, err)
		}
	}
	return entry, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decoding row: field %q: %w", key, err)
	}
	return s, nil
}

// flexString accepts a JSON string, number or null.
func flexString(raw json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected string or number, got %s", raw)
}
