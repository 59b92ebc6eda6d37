// Package introspect resolves a storage name (table/collection) to a
// simplified field→type view of the schema registered for it.
package introspect

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	UnavailableMessage = "Schema registry not attached"
	NotFoundMessage    = "Schema not found"
)

// Field is one declared field and its coarse type tag ("Number", "String", ...).
type Field struct {
	Name string
	Type string
}

// Registry is the catalog of known schemas. Implementations must not be
// mutated by callers of this package.
type Registry interface {
	ResourceNames() []string
	SchemaFor(name string) ([]Field, error)
	StorageNameOf(name string) string
}

type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusUnavailable
)

// Descriptor is the outcome of a lookup. Only StatusFound carries fields.
type Descriptor struct {
	Status Status
	Fields []Field
}

func (d Descriptor) Found() bool {
	return d.Status == StatusFound
}

// Map returns the field→type view, or nil when nothing was found.
func (d Descriptor) Map() map[string]string {
	if d.Status != StatusFound {
		return nil
	}
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		out[f.Name] = f.Type
	}
	return out
}

// MarshalJSON renders found schemas as an object in declaration order and the
// other outcomes as their sentinel strings.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	switch d.Status {
	case StatusUnavailable:
		return json.Marshal(UnavailableMessage)
	case StatusNotFound:
		return json.Marshal(NotFoundMessage)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reverses MarshalJSON, keeping field order.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err == nil {
		switch sentinel {
		case UnavailableMessage:
			*d = Descriptor{Status: StatusUnavailable}
		default:
			*d = Descriptor{Status: StatusNotFound}
		}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("introspect: unexpected descriptor token %v", tok)
	}
	fields := []Field{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var typ string
		if err := dec.Decode(&typ); err != nil {
			return err
		}
		fields = append(fields, Field{Name: name, Type: typ})
	}
	*d = Descriptor{Status: StatusFound, Fields: fields}
	return nil
}

// Introspector reads the registry on every call; nothing is cached.
type Introspector struct {
	registry Registry
}

// New binds the registry once. A nil registry makes every lookup report
// StatusUnavailable.
func New(reg Registry) *Introspector {
	return &Introspector{registry: reg}
}

// Describe finds the schema whose storage name equals resource.
func (i *Introspector) Describe(resource string) Descriptor {
	if i == nil || i.registry == nil {
		return Descriptor{Status: StatusUnavailable}
	}
	for _, name := range i.registry.ResourceNames() {
		if i.registry.StorageNameOf(name) != resource {
			continue
		}
		fields, err := i.registry.SchemaFor(name)
		if err != nil {
			return Descriptor{Status: StatusNotFound}
		}
		return Descriptor{Status: StatusFound, Fields: fields}
	}
	return Descriptor{Status: StatusNotFound}
}

// DescribeAll describes each resource. It returns nil for an empty input so
// callers can omit the section entirely.
func (i *Introspector) DescribeAll(resources []string) map[string]Descriptor {
	if len(resources) == 0 {
		return nil
	}
	out := make(map[string]Descriptor, len(resources))
	for _, r := range resources {
		out[r] = i.Describe(r)
	}
	return out
}
