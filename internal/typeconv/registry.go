package typeconv

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Entry is a registered converter with its target type erased.
type Entry struct {
	Type reflect.Type
	Name string

	conv    any
	convert func(Field) (any, bool)
}

// Convert runs the converter and boxes the result.
func (e Entry) Convert(field Field) (any, bool) {
	return e.convert(field)
}

// Registry maps target types, and optionally names, to converters.
// It is safe for concurrent use; registration is normally done once at startup.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Entry
	byName map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Entry),
		byName: make(map[string]Entry),
	}
}

// Register adds c as the converter for T and for Optional[T], replacing any
// converter previously registered for those types. Names are matched
// case-insensitively by LookupName and refer to T. Register panics if a name
// is already taken by a different type.
func Register[T any](r *Registry, c Converter[T], names ...string) {
	if c == nil {
		panic("typeconv: Register requires a non-nil converter")
	}
	entry := newEntry(c)
	optional := newEntry(Nullable(c))

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			panic("typeconv: Register called with an empty name")
		}
		if existing, ok := r.byName[key]; ok && existing.Type != entry.Type {
			panic(fmt.Sprintf("typeconv: name %q already registered for %s", key, existing.Type))
		}
	}

	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if i == 0 {
			entry.Name = key
		}
		named := entry
		named.Name = key
		r.byName[key] = named
	}
	r.byType[entry.Type] = entry
	r.byType[optional.Type] = optional
}

func newEntry[T any](c Converter[T]) Entry {
	return Entry{
		Type: reflect.TypeFor[T](),
		conv: c,
		convert: func(field Field) (any, bool) {
			v, ok := c.TryConvert(field)
			if !ok {
				return nil, false
			}
			return v, true
		},
	}
}

// Lookup returns the converter registered for T.
func Lookup[T any](r *Registry) (Converter[T], bool) {
	e, ok := r.LookupType(reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}
	c, ok := e.conv.(Converter[T])
	return c, ok
}

// LookupType returns the entry registered for t.
func (r *Registry) LookupType(t reflect.Type) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	return e, ok
}

// LookupName returns the entry registered under name, ignoring case.
func (r *Registry) LookupName(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Default returns a new registry holding every built-in converter.
func Default() *Registry {
	r := NewRegistry()

	Register[string](r, String{}, "string", "text")
	Register[int](r, Int[int](), "int")
	Register[int8](r, Int[int8](), "int8")
	Register[int16](r, Int[int16](), "int16")
	Register[int32](r, Int[int32](), "int32")
	Register[int64](r, Int[int64](), "int64", "integer", "bigint")
	Register[uint](r, Uint[uint](), "uint")
	Register[uint8](r, Uint[uint8](), "uint8", "byte")
	Register[uint16](r, Uint[uint16](), "uint16")
	Register[uint32](r, Uint[uint32](), "uint32")
	Register[uint64](r, Uint[uint64](), "uint64")
	Register[float32](r, Float[float32](), "float32")
	Register[float64](r, Float[float64](), "float64", "float", "double")
	Register[bool](r, BoolConverter{}, "bool", "boolean")
	Register[time.Time](r, TimeConverter{}, "time", "date", "datetime", "timestamp")
	Register[time.Duration](r, DurationConverter{}, "duration")
	Register[uuid.UUID](r, UUIDConverter{}, "uuid")

	Register[pgtype.Text](r, PgText{}, "pgtext")
	Register[pgtype.Numeric](r, PgNumeric{}, "numeric", "decimal", "pgnumeric")
	Register[pgtype.Date](r, PgDate{}, "pgdate")
	Register[pgtype.Bool](r, PgBool{}, "pgbool")
	Register[pgtype.UUID](r, PgUUID{}, "pguuid")
	Register[pgtype.Int8](r, PgInt8{}, "pgint8")

	return r
}
