// Package models contains domain entities and business models for the loyalty platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a schema-less JSON object stored in a jsonb column.
type JSONMap map[string]any

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}

	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// IsEmpty reports whether the map carries no keys.
func (m JSONMap) IsEmpty() bool {
	return len(m) == 0
}
