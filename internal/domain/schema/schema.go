// Package schema declares the field schemas for every business entity the
// voice intake can create. The registry is static: it is the single source
// of truth for required/optional field ordering and defaults, both for the
// orchestrator and for the instruction payload sent to the understanding
// engine.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownEntity is returned when a lookup names an unregistered entity.
var ErrUnknownEntity = errors.New("unknown entity")

// DefaultToday marks a default that resolves to the current date at
// instruction-build time.
const DefaultToday = "today"

// Entity describes one business record type.
type Entity struct {
	Name           string
	RequiredFields []string
	OptionalFields []string
	Defaults       map[string]string
}

// AllFields returns required then optional fields in collection order.
func (e Entity) AllFields() []string {
	fields := make([]string, 0, len(e.RequiredFields)+len(e.OptionalFields))
	fields = append(fields, e.RequiredFields...)
	fields = append(fields, e.OptionalFields...)
	return fields
}

// HasField reports whether field belongs to the entity's schema, counting
// required, optional, and default-only fields such as status.
func (e Entity) HasField(field string) bool {
	for _, f := range e.RequiredFields {
		if f == field {
			return true
		}
	}
	for _, f := range e.OptionalFields {
		if f == field {
			return true
		}
	}
	_, ok := e.Defaults[field]
	return ok
}

// MissingRequired returns the required fields absent from data, preserving
// schema order.
func (e Entity) MissingRequired(data map[string]any) []string {
	missing := []string{}
	for _, field := range e.RequiredFields {
		if !hasValue(data, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func hasValue(data map[string]any, field string) bool {
	v, ok := data[field]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// registry lists every supported entity in a fixed order so rendered
// instructions stay stable across calls.
var registry = []Entity{
	{
		Name:           "appointment",
		RequiredFields: []string{"client_name", "title", "date", "time", "address", "duration_minutes"},
		OptionalFields: []string{"notes"},
		Defaults: map[string]string{
			"duration_minutes": "60",
			"time":             "10:00",
			"status":           "scheduled",
		},
	},
	{
		Name:           "invoice",
		RequiredFields: []string{"client_name", "amount", "description"},
		OptionalFields: []string{"due_date", "notes"},
		Defaults: map[string]string{
			"status":     "draft",
			"issue_date": DefaultToday,
		},
	},
	{
		Name:           "contract",
		RequiredFields: []string{"client_name", "title", "amount"},
		OptionalFields: []string{"start_date", "end_date", "notes"},
		Defaults: map[string]string{
			"status": "draft",
		},
	},
	{
		Name:           "expense",
		RequiredFields: []string{"amount", "category", "description"},
		OptionalFields: []string{"date", "notes"},
		Defaults: map[string]string{
			"date": DefaultToday,
		},
	},
	{
		Name:           "income",
		RequiredFields: []string{"amount", "source"},
		OptionalFields: []string{"date", "notes"},
		Defaults: map[string]string{
			"date": DefaultToday,
		},
	},
	{
		Name:           "client",
		RequiredFields: []string{"name", "phone"},
		OptionalFields: []string{"email", "address", "notes"},
		Defaults:       map[string]string{},
	},
}

// Lookup returns the entity definition for name.
func Lookup(name string) (Entity, error) {
	for _, entity := range registry {
		if entity.Name == name {
			return entity, nil
		}
	}
	return Entity{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
}

// ForAction resolves an action name (create_appointment, add_client, ...)
// to its entity definition.
func ForAction(action string) (Entity, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(action, "create_"), "add_")
	return Lookup(name)
}

// Entities returns the registry in declaration order.
func Entities() []Entity {
	out := make([]Entity, len(registry))
	copy(out, registry)
	return out
}

// Render writes the schema block embedded into the engine instructions.
// Defaults marked DefaultToday resolve against now.
func Render(now time.Time) string {
	var b strings.Builder
	for _, entity := range registry {
		fmt.Fprintf(&b, "- %s:\n", entity.Name)
		fmt.Fprintf(&b, "  required (collect in this order): %s\n", strings.Join(entity.RequiredFields, ", "))
		if len(entity.OptionalFields) > 0 {
			fmt.Fprintf(&b, "  optional: %s\n", strings.Join(entity.OptionalFields, ", "))
		}
		if len(entity.Defaults) > 0 {
			fmt.Fprintf(&b, "  defaults: %s\n", renderDefaults(entity, now))
		}
	}
	return b.String()
}

func renderDefaults(entity Entity, now time.Time) string {
	parts := make([]string, 0, len(entity.Defaults))
	// Iterate fields in schema order so output is deterministic.
	for _, field := range append(entity.AllFields(), "status", "issue_date") {
		value, ok := entity.Defaults[field]
		if !ok {
			continue
		}
		if value == DefaultToday {
			value = now.Format("2006-01-02")
		}
		parts = append(parts, fmt.Sprintf("%s=%s", field, value))
	}
	return strings.Join(parts, ", ")
}
