package schema

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Load reads a spec from a .json, .yaml or .yml file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read spec: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported file extension %q", ErrInvalidSpec, ext)
	}
}

// Parse detects the format of data: input starting with '{' is JSON,
// anything else YAML.
func Parse(data []byte) (*Spec, error) {
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseJSON parses and validates a JSON spec. Values of the wrong JSON type
// are rejected rather than coerced.
func ParseJSON(data []byte) (*Spec, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidSpec)
	}
	doc := gjson.ParseBytes(data)

	spec := &Spec{
		Key:       doc.Get("key").String(),
		Label:     doc.Get("label").String(),
		Group:     doc.Get("group").String(),
		Table:     doc.Get("table").String(),
		Delimiter: doc.Get("delimiter").String(),
		Comment:   doc.Get("comment").String(),
	}

	var err error
	if spec.Quoted, err = jsonBool(doc.Get("quoted"), "quoted"); err != nil {
		return nil, err
	}
	if spec.SkipHeader, err = jsonBool(doc.Get("skip_header"), "skip_header"); err != nil {
		return nil, err
	}

	fields := doc.Get("fields")
	if fields.Exists() && !fields.IsArray() {
		return nil, fmt.Errorf("%w: fields must be an array", ErrInvalidSpec)
	}
	for i, f := range fields.Array() {
		field, err := jsonField(i, f)
		if err != nil {
			return nil, err
		}
		spec.Fields = append(spec.Fields, field)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func jsonField(i int, f gjson.Result) (FieldSpec, error) {
	field := FieldSpec{
		Name:       f.Get("name").String(),
		Type:       FieldType(strings.ToLower(f.Get("type").String())),
		Column:     -1,
		Header:     f.Get("header").String(),
		Normalizer: f.Get("normalizer").String(),
		Policy:     f.Get("policy").String(),
	}

	if c := f.Get("column"); c.Exists() && c.Type != gjson.Null {
		if c.Type != gjson.Number || c.Num != math.Trunc(c.Num) || math.Abs(c.Num) > math.MaxInt32 {
			return FieldSpec{}, fmt.Errorf("%w: field %d (%s): column must be an integer, got %s",
				ErrInvalidSpec, i, field.Name, c.Raw)
		}
		field.Column = int(c.Num)
	}

	required, err := jsonBool(f.Get("required"), fmt.Sprintf("field %d (%s): required", i, field.Name))
	if err != nil {
		return FieldSpec{}, err
	}
	field.Required = required != nil && *required

	for _, l := range f.Get("layouts").Array() {
		field.Layouts = append(field.Layouts, l.String())
	}
	for _, e := range f.Get("enum").Array() {
		field.Enum = append(field.Enum, e.String())
	}
	return field, nil
}

// jsonBool reads an optional boolean. Absent and null give nil.
func jsonBool(v gjson.Result, name string) (*bool, error) {
	switch v.Type {
	case gjson.True:
		b := true
		return &b, nil
	case gjson.False:
		b := false
		return &b, nil
	case gjson.Null:
		// gjson reports absent values as Null too.
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s must be true or false, got %s", ErrInvalidSpec, name, v.Raw)
}

// yamlField mirrors FieldSpec with an optional column.
type yamlField struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Column     *int     `yaml:"column"`
	Header     string   `yaml:"header"`
	Required   bool     `yaml:"required"`
	Layouts    []string `yaml:"layouts"`
	Enum       []string `yaml:"enum"`
	Normalizer string   `yaml:"normalizer"`
	Policy     string   `yaml:"policy"`
}

type yamlSpec struct {
	Key        string      `yaml:"key"`
	Label      string      `yaml:"label"`
	Group      string      `yaml:"group"`
	Table      string      `yaml:"table"`
	Delimiter  string      `yaml:"delimiter"`
	Quoted     *bool       `yaml:"quoted"`
	SkipHeader *bool       `yaml:"skip_header"`
	Comment    string      `yaml:"comment"`
	Fields     []yamlField `yaml:"fields"`
}

// ParseYAML parses and validates a YAML spec.
func ParseYAML(data []byte) (*Spec, error) {
	var doc yamlSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	spec := &Spec{
		Key:        doc.Key,
		Label:      doc.Label,
		Group:      doc.Group,
		Table:      doc.Table,
		Delimiter:  doc.Delimiter,
		Quoted:     doc.Quoted,
		SkipHeader: doc.SkipHeader,
		Comment:    doc.Comment,
		Fields:     make([]FieldSpec, len(doc.Fields)),
	}
	for i, f := range doc.Fields {
		field := FieldSpec{
			Name:       f.Name,
			Type:       FieldType(strings.ToLower(f.Type)),
			Column:     -1,
			Header:     f.Header,
			Required:   f.Required,
			Layouts:    f.Layouts,
			Enum:       f.Enum,
			Normalizer: f.Normalizer,
			Policy:     f.Policy,
		}
		if f.Column != nil {
			field.Column = *f.Column
		}
		spec.Fields[i] = field
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
