package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

// TagName is the struct tag read by FromTags.
const TagName = "csv"

// BindField binds column to the exported struct field of T named field. The
// converter is looked up in reg by the field's type.
func BindField[T any](column int, field string, reg *typeconv.Registry) (Field[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return Field[T]{}, &ConfigError{Field: field, Column: column, Err: fmt.Errorf("%w: %s is not a struct", ErrInvalidField, t)}
	}
	sf, ok := t.FieldByName(field)
	if !ok || !sf.IsExported() || !reachable(t, sf.Index) {
		return Field[T]{}, &ConfigError{Field: field, Column: column, Err: fmt.Errorf("%w: %s has no exported field %s", ErrInvalidField, t, field)}
	}
	return bindStructField[T](column, sf, FailRow, reg)
}

// FromTags builds fields from the csv struct tags of T:
//
//	type Person struct {
//		ID    int                        `csv:"0"`
//		Name  typeconv.Optional[string]  `csv:"1"`
//		Email string                     `csv:"4,ignoremissing"`
//		Notes string                     `csv:"-"`
//	}
//
// Tag options are ignoremissing and ignoreerrors, selecting the ErrorPolicy.
// Untagged fields are not mapped.
func FromTags[T any](reg *typeconv.Registry) ([]Field[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, &ConfigError{Err: fmt.Errorf("%w: %s is not a struct", ErrInvalidField, t)}
	}

	var (
		fields []Field[T]
		errs   []error
	)
	for _, sf := range reflect.VisibleFields(t) {
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" || sf.Anonymous || !sf.IsExported() || !reachable(t, sf.Index) {
			continue
		}
		column, policy, err := parseTag(tag)
		if err != nil {
			errs = append(errs, &ConfigError{Field: sf.Name, Column: column, Err: err})
			continue
		}
		f, err := bindStructField[T](column, sf, policy, reg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fields = append(fields, f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return fields, nil
}

func parseTag(tag string) (int, ErrorPolicy, error) {
	parts := strings.Split(tag, ",")
	column, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return -1, FailRow, fmt.Errorf("%w: tag %q", ErrInvalidColumn, tag)
	}
	policy := FailRow
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "ignoremissing":
			policy = IgnoreMissing
		case "ignoreerrors":
			policy = IgnoreErrors
		case "":
		default:
			return column, FailRow, fmt.Errorf("%w: unknown tag option %q", ErrInvalidField, opt)
		}
	}
	return column, policy, nil
}

func bindStructField[T any](column int, sf reflect.StructField, policy ErrorPolicy, reg *typeconv.Registry) (Field[T], error) {
	entry, ok := reg.LookupType(sf.Type)
	if !ok {
		return Field[T]{}, &ConfigError{Field: sf.Name, Column: column, Err: fmt.Errorf("%w for %s", ErrNoConverter, sf.Type)}
	}

	index := sf.Index
	f := Field[T]{column: column, name: sf.Name, policy: policy}
	f.stage = func(in typeconv.Field) (func(*T), bool) {
		v, ok := entry.Convert(in)
		if !ok {
			return nil, false
		}
		rv := reflect.ValueOf(v)
		return func(dst *T) {
			reflect.ValueOf(dst).Elem().FieldByIndex(index).Set(rv)
		}, true
	}
	return f, nil
}

// reachable reports whether the field at index can be set without
// dereferencing an embedded pointer.
func reachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() != reflect.Struct {
			return false
		}
	}
	return true
}
