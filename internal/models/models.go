package models

import "strconv"

// Chunk is one bounded slice of a profile prepared for embedding.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// FileMetadata describes the table behind a profile. ColumnNames and
// ColumnTypes are not scalar and must be filtered out before a chunk is
// persisted.
type FileMetadata struct {
	FileName    string
	NumRows     int
	NumColumns  int
	ColumnNames []string
	ColumnTypes map[string]string
}

// AsMap returns the raw metadata, non-scalar fields included. The vector
// store filters this down to scalar values before persistence.
func (m FileMetadata) AsMap() map[string]any {
	return map[string]any{
		"file_name":    m.FileName,
		"num_rows":     m.NumRows,
		"num_columns":  m.NumColumns,
		"column_names": m.ColumnNames,
		"column_types": m.ColumnTypes,
	}
}

// ScalarString renders a scalar metadata value for storage.
func ScalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	default:
		return "", false
	}
}
