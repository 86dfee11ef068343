package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// VisitorInfo captures who brought the vehicle in. Stored as a jsonb column on
// the processing record; the visitor is not necessarily the registered owner.
type VisitorInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Note  string `json:"note,omitempty"`
}

// Validate checks the minimal intake requirements.
func (v VisitorInfo) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("visitor name is required")
	}
	return nil
}

// Value implements driver.Valuer for jsonb storage.
func (v VisitorInfo) Value() (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (v *VisitorInfo) Scan(src any) error {
	if src == nil {
		*v = VisitorInfo{}
		return nil
	}
	switch raw := src.(type) {
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	default:
		return fmt.Errorf("unsupported visitor info source %T", src)
	}
}
