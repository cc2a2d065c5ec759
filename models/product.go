package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProductLine is a single extracted product row from a ticket.
// Quantity and Price stay strings because the vision model returns free-form
// numerals that must survive round-trips for duplicate comparison.
type ProductLine struct {
	Name     string `json:"nombre"`
	Quantity string `json:"cantidad"`
	Price    string `json:"precio"`
}

// ProductList is a jsonb list of product lines.
type ProductList []ProductLine

// Value implements the driver.Valuer interface for ProductList
func (p ProductList) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for ProductList
func (p *ProductList) Scan(value any) error {
	if value == nil {
		*p = ProductList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ProductList", value)
	}

	if len(bytes) == 0 {
		*p = ProductList{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}
