package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvmap/internal/core"
)

func TestReportPage(t *testing.T) {
	r := &core.Report{
		ID:        uuid.New(),
		SchemaKey: "people",
		FileName:  "<script>.csv",
		Mode:      core.ModeParse,
		TotalRows: 3,
		Valid:     1,
		Invalid:   1,
		Items:     []any{map[string]any{"id": 1}},
		FailedRows: []core.FailedRow{
			{LineNumber: 3, Reason: "row 2, column 0 (id): bad"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ReportPage(r).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "&lt;script&gt;.csv")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "/api/reports/"+r.ID.String()+"/failed-rows")
	assert.Contains(t, out, "<td>3</td>")
	assert.Contains(t, out, "{&#34;id&#34;:1}")
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorPage("Unknown schema", "Pick another", "SCH001").Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "<strong>Unknown schema</strong>")
	assert.Contains(t, buf.String(), "Code: SCH001")
}

func TestIndex(t *testing.T) {
	groups := []SchemaGroup{{
		Name:    "Builtin",
		Schemas: []core.SchemaInfo{{Key: "people", Label: "People", Table: "people"}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Index(groups, true).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), `href="/api/template/people"`)
	assert.NotContains(t, buf.String(), "Imports are disabled")
}
