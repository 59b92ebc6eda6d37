package repository

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/GoPolymarket/schemascope/internal/introspect"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// GormRegistry exposes registered gorm models as an introspect.Registry.
// Models are registered at startup; lookups only read.
type GormRegistry struct {
	namer schema.Namer
	cache *sync.Map

	mu     sync.RWMutex
	models map[string]any
	names  []string
}

func NewGormRegistry(db *gorm.DB, models ...any) *GormRegistry {
	var namer schema.Namer = schema.NamingStrategy{}
	if db != nil && db.Config != nil && db.NamingStrategy != nil {
		namer = db.NamingStrategy
	}
	r := &GormRegistry{
		namer:  namer,
		cache:  &sync.Map{},
		models: make(map[string]any),
	}
	r.Register(models...)
	return r
}

// Register adds models under their Go type name. Re-registering a name is a no-op.
func (r *GormRegistry) Register(models ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range models {
		if m == nil {
			continue
		}
		name := reflect.Indirect(reflect.ValueOf(m)).Type().Name()
		if _, ok := r.models[name]; ok {
			continue
		}
		r.models[name] = m
		r.names = append(r.names, name)
	}
}

func (r *GormRegistry) ResourceNames() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *GormRegistry) StorageNameOf(name string) string {
	s, err := r.parse(name)
	if err != nil {
		return ""
	}
	return s.Table
}

func (r *GormRegistry) SchemaFor(name string) ([]introspect.Field, error) {
	s, err := r.parse(name)
	if err != nil {
		return nil, err
	}
	fields := make([]introspect.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.DBName == "" {
			continue // associations
		}
		fields = append(fields, introspect.Field{Name: fieldName(f), Type: typeTag(f)})
	}
	return fields, nil
}

func (r *GormRegistry) parse(name string) (*schema.Schema, error) {
	if r == nil {
		return nil, fmt.Errorf("registry not initialized")
	}
	r.mu.RLock()
	m, ok := r.models[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("model %q not registered", name)
	}
	return schema.Parse(m, r.cache, r.namer)
}

// fieldName prefers the JSON name, since that is what clients send.
func fieldName(f *schema.Field) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func typeTag(f *schema.Field) string {
	if tag := introspect.TypeTag(f.IndirectFieldType); tag != "Mixed" {
		return tag
	}
	switch f.DataType {
	case schema.Bool:
		return "Boolean"
	case schema.Int, schema.Uint, schema.Float:
		return "Number"
	case schema.String:
		return "String"
	case schema.Time:
		return "Date"
	case schema.Bytes:
		return "Buffer"
	default:
		return "Mixed"
	}
}
