package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAny    EventType = "*"
)

// Event is a row change on one table. OwnerID scopes delivery to the owning
// user and staff; an empty OwnerID is delivered to every subscriber.
type Event struct {
	Type      EventType      `json:"type"`
	Table     string         `json:"table"`
	Schema    string         `json:"schema"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	OwnerID   string         `json:"owner_id,omitempty"`
}

// NewEvent builds an event from a row value. The row is converted through
// its JSON representation so filters match the field names clients see.
func NewEvent(eventType EventType, table string, row any, ownerID string) Event {
	return Event{
		Type:      eventType,
		Table:     table,
		Schema:    "public",
		Record:    toRecord(row),
		Timestamp: time.Now().UTC(),
		OwnerID:   ownerID,
	}
}

// WithOld attaches the previous row state.
func (e Event) WithOld(row any) Event {
	e.OldRecord = toRecord(row)
	return e
}

func toRecord(row any) map[string]any {
	if row == nil {
		return nil
	}
	if m, ok := row.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// Filter matches a record column against a value, written as column=eq.value.
type Filter struct {
	Column string
	Value  string
}

// ParseFilter parses "column=eq.value". An empty string is no filter.
func ParseFilter(s string) (*Filter, error) {
	if s == "" {
		return nil, nil
	}
	column, rest, ok := strings.Cut(s, "=")
	if !ok || column == "" {
		return nil, fmt.Errorf("invalid filter %q", s)
	}
	value, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return nil, fmt.Errorf("unsupported filter operator in %q", s)
	}
	return &Filter{Column: column, Value: value}, nil
}

func (f *Filter) Match(record map[string]any) bool {
	if f == nil {
		return true
	}
	v, ok := record[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}
