package core

import (
	"fmt"
	"unicode/utf8"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

// DefaultSpecGroup is the group of declarative schemas that do not name one.
const DefaultSpecGroup = "Custom"

// FromSpec turns a declarative spec into a SchemaDefinition whose items are
// schema.Records. Specs addressing columns by index are checked here;
// header-based specs are checked against each file's header.
func FromSpec(spec *schema.Spec, reg *typeconv.Registry) (SchemaDefinition, error) {
	if err := spec.Validate(); err != nil {
		return SchemaDefinition{}, err
	}
	if spec.Delimiter != "" && specQuoted(spec) && utf8.RuneCountInString(spec.Delimiter) != 1 {
		return SchemaDefinition{}, fmt.Errorf("%w: quoted files need a single character delimiter, got %q",
			schema.ErrInvalidSpec, spec.Delimiter)
	}

	info := SchemaInfo{
		Key:     spec.Key,
		Group:   spec.Group,
		Label:   spec.Label,
		Table:   spec.Table,
		Columns: spec.Headers(),
		Source:  "spec",
	}
	if info.Group == "" {
		info.Group = DefaultSpecGroup
	}
	if info.Label == "" {
		info.Label = spec.Key
	}

	def := Definition[schema.Record]{
		Info:        info,
		NeedsHeader: spec.UsesHeaders(),
		Mapper: func(header []string) (*mapping.Mapper[schema.Record], error) {
			return spec.Mapper(reg, header)
		},
		Tune: func(s *ParseSettings) {
			if spec.Delimiter != "" {
				s.Separator = spec.Delimiter
			}
			if spec.Quoted != nil {
				s.Quoted = *spec.Quoted
			}
			if spec.SkipHeader != nil {
				s.SkipHeader = *spec.SkipHeader
			}
			if spec.Comment != "" {
				s.CommentPrefix = spec.Comment
			}
		},
	}

	if !def.NeedsHeader {
		if _, err := spec.Mapper(reg, nil); err != nil {
			return SchemaDefinition{}, err
		}
	}

	if spec.Table != "" {
		names := make([]string, len(spec.Fields))
		def.CopyColumns = make([]string, len(spec.Fields))
		for i, f := range spec.Fields {
			names[i] = f.Name
			def.CopyColumns[i] = toDBColumnName(f.Name)
		}
		def.CopyRow = func(r schema.Record) []any {
			row := make([]any, len(names))
			for i, name := range names {
				row[i] = r[name]
			}
			return row
		}
	}

	return Define(def), nil
}

func specQuoted(spec *schema.Spec) bool {
	return spec.Quoted == nil || *spec.Quoted
}
