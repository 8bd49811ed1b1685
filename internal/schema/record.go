package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

// Record is the destination of a declarative mapping: field name to value.
// Blank optional fields hold nil.
type Record map[string]any

var (
	normalizersMu sync.RWMutex
	normalizers   = map[string]func(string) string{
		"trim":  strings.TrimSpace,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"clean": typeconv.CleanCell,
	}
)

// RegisterNormalizer makes fn available to specs under name.
// It panics if name is already registered.
func RegisterNormalizer(name string, fn func(string) string) {
	normalizersMu.Lock()
	defer normalizersMu.Unlock()
	if _, exists := normalizers[name]; exists {
		panic(fmt.Sprintf("schema: normalizer %q already registered", name))
	}
	normalizers[name] = fn
}

func lookupNormalizer(name string) (func(string) string, bool) {
	normalizersMu.RLock()
	defer normalizersMu.RUnlock()
	fn, ok := normalizers[name]
	return fn, ok
}

func parsePolicy(s string) (mapping.ErrorPolicy, error) {
	switch s {
	case "", "fail":
		return mapping.FailRow, nil
	case "ignore-missing":
		return mapping.IgnoreMissing, nil
	case "ignore-errors":
		return mapping.IgnoreErrors, nil
	default:
		return mapping.FailRow, fmt.Errorf("unknown policy %q", s)
	}
}

// Mapper builds a mapping.Mapper for the spec. header is the tokenized
// header row, needed only when fields are addressed by header name.
func (s *Spec) Mapper(reg *typeconv.Registry, header []string) (*mapping.Mapper[Record], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(typeconv.CleanCell(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	fields := make([]mapping.Field[Record], 0, len(s.Fields))
	for _, f := range s.Fields {
		column := f.Column
		if f.Header != "" {
			i, ok := index[strings.ToLower(strings.TrimSpace(f.Header))]
			if !ok {
				return nil, fmt.Errorf("%w: %q (field %s)", ErrUnknownHeader, f.Header, f.Name)
			}
			column = i
		}

		conv, err := f.converter(reg)
		if err != nil {
			return nil, err
		}
		policy, _ := parsePolicy(f.Policy)

		name := f.Name
		fields = append(fields, mapping.Bind(column, name, conv, func(r *Record, v any) {
			(*r)[name] = v
		}).WithPolicy(policy))
	}

	size := len(fields)
	return mapping.New(fields, mapping.WithFactory(func() Record {
		return make(Record, size)
	}))
}

// converter resolves the field's type into a converter producing the value
// stored in the Record.
func (f FieldSpec) converter(reg *typeconv.Registry) (typeconv.Converter[any], error) {
	var convert func(typeconv.Field) (any, bool)

	switch f.Type {
	case TypeText, "":
		convert = func(in typeconv.Field) (any, bool) { return in.Text, true }
	case TypeEnum:
		enum := typeconv.EnumStrings(f.Enum...)
		convert = func(in typeconv.Field) (any, bool) { return enum.TryConvert(in) }
	case TypeDate:
		date := typeconv.TimeConverter{}
		if len(f.Layouts) > 0 {
			date = typeconv.Time(f.Layouts...)
		}
		convert = func(in typeconv.Field) (any, bool) { return date.TryConvert(in) }
	default:
		entry, ok := reg.LookupName(string(f.Type))
		if !ok {
			return nil, fmt.Errorf("%w: %q (field %s)", ErrUnknownType, f.Type, f.Name)
		}
		convert = entry.Convert
	}

	var normalize func(string) string
	if f.Normalizer != "" {
		fn, ok := lookupNormalizer(f.Normalizer)
		if !ok {
			return nil, fmt.Errorf("%w: %q (field %s)", ErrUnknownNormalizer, f.Normalizer, f.Name)
		}
		normalize = fn
	}

	required := f.Required
	return typeconv.Func[any](func(in typeconv.Field) (any, bool) {
		if normalize != nil && in.Valid {
			in.Text = normalize(in.Text)
		}
		if in.IsBlank() {
			if required {
				return nil, false
			}
			return nil, true
		}
		return convert(in)
	}), nil
}
