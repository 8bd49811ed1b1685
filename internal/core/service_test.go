package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/csvmap/internal/config"
	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/store"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

type testPerson struct {
	ID   int64  `csv:"0"`
	Name string `csv:"1"`
	Age  int    `csv:"2"`
}

func testPersonDefinition(key string) Definition[testPerson] {
	return Definition[testPerson]{
		Info: SchemaInfo{
			Key:     key,
			Group:   "Test",
			Label:   "People",
			Table:   "people",
			Columns: []string{"id", "name", "age"},
		},
		Mapper: func([]string) (*mapping.Mapper[testPerson], error) {
			fields, err := mapping.FromTags[testPerson](typeconv.Default())
			if err != nil {
				return nil, err
			}
			return mapping.New(fields)
		},
		CopyColumns: []string{"id", "name", "age"},
		CopyRow: func(p testPerson) []any {
			return []any{p.ID, p.Name, p.Age}
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

// withRegistry swaps in a clean registry for one test.
func withRegistry(t *testing.T, defs ...SchemaDefinition) {
	t.Helper()
	Clear()
	for _, def := range defs {
		Register(def)
	}
	t.Cleanup(Clear)
}

// recordingCopier drains the COPY source like pgx does.
type recordingCopier struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
	err     error
}

func (c *recordingCopier) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	c.table = table
	c.columns = columns
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		c.rows = append(c.rows, values)
	}
	if err := src.Err(); err != nil {
		return 0, err
	}
	if c.err != nil {
		return 0, c.err
	}
	return int64(len(c.rows)), nil
}

const peopleCSV = "id,name,age\n1,Alice,30\n2,Bob,x\n\n3,Carol,41\n"

func TestService_Parse(t *testing.T) {
	withRegistry(t, Define(testPersonDefinition("people")))
	svc := NewService(testConfig(t), nil)

	report, err := svc.Parse(context.Background(), "people", "people.csv", strings.NewReader(peopleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if report.Valid != 2 || report.Invalid != 1 {
		t.Errorf("valid/invalid = %d/%d, want 2/1", report.Valid, report.Invalid)
	}
	// header and the blank line
	if report.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", report.Skipped)
	}
	if report.TotalRows != 5 {
		t.Errorf("TotalRows = %d, want 5", report.TotalRows)
	}
	if report.BytesRead != int64(len(peopleCSV)) {
		t.Errorf("BytesRead = %d, want %d", report.BytesRead, len(peopleCSV))
	}

	if len(report.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(report.Items))
	}
	if got := report.Items[1].(testPerson); got != (testPerson{ID: 3, Name: "Carol", Age: 41}) {
		t.Errorf("Items[1] = %+v", got)
	}

	if len(report.FailedRows) != 1 {
		t.Fatalf("len(FailedRows) = %d, want 1", len(report.FailedRows))
	}
	failed := report.FailedRows[0]
	if failed.LineNumber != 3 {
		t.Errorf("LineNumber = %d, want 3", failed.LineNumber)
	}
	if len(failed.Errors) != 1 || failed.Errors[0].Field != "Age" {
		t.Errorf("Errors = %v, want one error on Age", failed.Errors)
	}
	if want := []string{"2", "Bob", "x"}; strings.Join(failed.Data, ",") != strings.Join(want, ",") {
		t.Errorf("Data = %v, want %v", failed.Data, want)
	}

	stored, err := svc.Report(report.ID)
	if err != nil || stored != report {
		t.Errorf("Report(%s) = %v, %v", report.ID, stored, err)
	}
}

func TestService_Parse_Parallel(t *testing.T) {
	withRegistry(t, Define(testPersonDefinition("people")))
	cfg := testConfig(t)
	cfg.Parser.Parallelism = 4

	var b strings.Builder
	b.WriteString("id,name,age\n")
	for i := 1; i <= 500; i++ {
		fmt.Fprintf(&b, "%d,n%d,%d\n", i, i, i%90)
	}

	report, err := NewService(cfg, nil).Parse(context.Background(), "people", "big.csv", strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if report.Valid != 500 {
		t.Fatalf("Valid = %d, want 500", report.Valid)
	}
	for i, item := range report.Items {
		if got := item.(testPerson).ID; got != int64(i+1) {
			t.Fatalf("Items[%d].ID = %d, want %d", i, got, i+1)
		}
	}
}

func TestService_Parse_UnknownSchema(t *testing.T) {
	withRegistry(t)
	svc := NewService(testConfig(t), nil)

	_, err := svc.Parse(context.Background(), "missing", "a.csv", strings.NewReader("1,2,3\n"))
	if !errors.Is(err, ErrUnknownSchema) {
		t.Errorf("err = %v, want ErrUnknownSchema", err)
	}
}

func TestService_Parse_ItemCaps(t *testing.T) {
	withRegistry(t, Define(testPersonDefinition("people")))
	cfg := testConfig(t)
	cfg.Upload.MaxReportItems = 1
	cfg.Upload.MaxFailedRows = 1

	input := "id,name,age\n1,a,1\n2,b,2\nx,c,3\ny,d,4\n"
	report, err := NewService(cfg, nil).Parse(context.Background(), "people", "a.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(report.Items) != 1 || !report.ItemsTruncated {
		t.Errorf("Items = %d truncated=%v, want 1 truncated", len(report.Items), report.ItemsTruncated)
	}
	if len(report.FailedRows) != 1 || !report.FailedTruncated {
		t.Errorf("FailedRows = %d truncated=%v, want 1 truncated", len(report.FailedRows), report.FailedTruncated)
	}
	if report.Valid != 2 || report.Invalid != 2 {
		t.Errorf("valid/invalid = %d/%d, want 2/2", report.Valid, report.Invalid)
	}
}

func TestService_Parse_FileTooLarge(t *testing.T) {
	withRegistry(t, Define(testPersonDefinition("people")))
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 16

	_, err := NewService(cfg, nil).Parse(context.Background(), "people", "a.csv", strings.NewReader(peopleCSV))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
	if code := MapError(err).Code; code != "SRC003" {
		t.Errorf("MapError code = %s, want SRC003", code)
	}
}

func TestService_Parse_Cancelled(t *testing.T) {
	withRegistry(t, Define(testPersonDefinition("people")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(testConfig(t), nil).Parse(ctx, "people", "a.csv", strings.NewReader(peopleCSV))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestService_ParseWithSpec_Headers(t *testing.T) {
	withRegistry(t)
	spec := &schema.Spec{
		Key:       "adhoc",
		Delimiter: ";",
		Comment:   "#",
		Fields: []schema.FieldSpec{
			{Name: "email", Header: "E-Mail", Required: true, Column: -1, Normalizer: "lower"},
			{Name: "score", Header: "Score", Type: schema.TypeInt, Column: -1},
		},
	}
	input := "# export\nScore;Name;E-Mail\n7;Ann;ANN@EXAMPLE.COM\nseven;Bo;bo@example.com\n"

	report, err := NewService(testConfig(t), nil).ParseWithSpec(context.Background(), spec, "x.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseWithSpec: %v", err)
	}
	if report.Valid != 1 || report.Invalid != 1 {
		t.Fatalf("valid/invalid = %d/%d, want 1/1", report.Valid, report.Invalid)
	}
	rec := report.Items[0].(schema.Record)
	if rec["email"] != "ann@example.com" || rec["score"] != 7 {
		t.Errorf("record = %v", rec)
	}
	if got := strings.Join(report.Columns, ","); got != "Score,Name,E-Mail" {
		t.Errorf("Columns = %s", got)
	}
	if report.FailedRows[0].LineNumber != 4 {
		t.Errorf("failed line = %d, want 4", report.FailedRows[0].LineNumber)
	}
	// comment and header
	if report.Skipped != 2 || report.TotalRows != 4 {
		t.Errorf("skipped/total = %d/%d, want 2/4", report.Skipped, report.TotalRows)
	}
}

func TestService_ParseWithSpec_MissingHeader(t *testing.T) {
	withRegistry(t)
	spec := &schema.Spec{
		Key:    "adhoc",
		Fields: []schema.FieldSpec{{Name: "email", Header: "Email", Column: -1}},
	}

	_, err := NewService(testConfig(t), nil).ParseWithSpec(context.Background(), spec, "x.csv", strings.NewReader("Name\nAnn\n"))
	if !errors.Is(err, schema.ErrUnknownHeader) {
		t.Errorf("err = %v, want ErrUnknownHeader", err)
	}
}

func TestService_ParseWithSpec_EmptyFile(t *testing.T) {
	withRegistry(t)
	spec := &schema.Spec{
		Key:    "adhoc",
		Fields: []schema.FieldSpec{{Name: "email", Header: "Email", Column: -1}},
	}

	_, err := NewService(testConfig(t), nil).ParseWithSpec(context.Background(), spec, "x.csv", strings.NewReader("\n\n"))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestService_Import(t *testing.T) {
	withRegistry(t, Define(testPersonDefinition("people")))
	copier := &recordingCopier{}
	svc := NewService(testConfig(t), store.New(copier, nil))

	report, err := svc.Import(context.Background(), "people", "people.csv", strings.NewReader(peopleCSV))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", report.Inserted)
	}
	if report.Invalid != 1 {
		t.Errorf("Invalid = %d, want 1", report.Invalid)
	}
	if copier.table.Sanitize() != `"people"` {
		t.Errorf("table = %v", copier.table)
	}
	if len(copier.rows) != 2 || copier.rows[1][1] != "Carol" {
		t.Errorf("rows = %v", copier.rows)
	}
}

func TestService_Import_Errors(t *testing.T) {
	noTable := testPersonDefinition("notable")
	noTable.Info.Table = ""
	noTable.CopyColumns = nil
	noTable.CopyRow = nil
	withRegistry(t, Define(testPersonDefinition("people")), Define(noTable))

	t.Run("disabled without store", func(t *testing.T) {
		_, err := NewService(testConfig(t), nil).Import(context.Background(), "people", "a.csv", strings.NewReader(peopleCSV))
		if !errors.Is(err, ErrImportDisabled) {
			t.Errorf("err = %v, want ErrImportDisabled", err)
		}
	})

	t.Run("schema without table", func(t *testing.T) {
		svc := NewService(testConfig(t), store.New(&recordingCopier{}, nil))
		_, err := svc.Import(context.Background(), "notable", "a.csv", strings.NewReader(peopleCSV))
		if !errors.Is(err, ErrNoImportTarget) {
			t.Errorf("err = %v, want ErrNoImportTarget", err)
		}
	})

	t.Run("database error", func(t *testing.T) {
		dbErr := errors.New("boom")
		svc := NewService(testConfig(t), store.New(&recordingCopier{err: dbErr}, nil))
		_, err := svc.Import(context.Background(), "people", "a.csv", strings.NewReader(peopleCSV))
		if !errors.Is(err, dbErr) {
			t.Errorf("err = %v, want %v", err, dbErr)
		}
	})
}

func TestService_ReportNotFound(t *testing.T) {
	svc := NewService(testConfig(t), nil)
	_, err := svc.Report([16]byte{1})
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("err = %v, want ErrReportNotFound", err)
	}
}

func TestReportCache_Evicts(t *testing.T) {
	c := newReportCache(2)
	reports := make([]*Report, 3)
	for i := range reports {
		reports[i] = &Report{ID: [16]byte{byte(i + 1)}}
		c.add(reports[i])
	}
	if _, ok := c.get(reports[0].ID); ok {
		t.Error("oldest report should be evicted")
	}
	for _, r := range reports[1:] {
		if _, ok := c.get(r.ID); !ok {
			t.Errorf("report %s missing", r.ID)
		}
	}
}

func TestWriteFailedRowsCSV(t *testing.T) {
	report := &Report{
		Columns: []string{"id", "name", "age"},
		FailedRows: []FailedRow{
			{LineNumber: 3, Reason: "bad age", Data: []string{"2", "Bob", "x"}},
			{LineNumber: 9, Reason: "has, comma", Data: []string{"9", "Eve"}},
		},
	}

	var buf bytes.Buffer
	if err := WriteFailedRowsCSV(&buf, report); err != nil {
		t.Fatalf("WriteFailedRowsCSV: %v", err)
	}

	want := "_line,_error,id,name,age\n" +
		"3,bad age,2,Bob,x\n" +
		"9,\"has, comma\",9,Eve\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
