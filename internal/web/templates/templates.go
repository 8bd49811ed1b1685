// Package templates renders the HTML views of the web server as templ
// components.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvmap/internal/core"
)

// SchemaGroup is one group of schemas on the index page.
type SchemaGroup struct {
	Name    string
	Schemas []core.SchemaInfo
}

// maxRenderedItems caps the items shown on a report page.
const maxRenderedItems = 50

const styles = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;margin:1rem 0}td,th{border:1px solid #d1d5db;padding:.25rem .5rem;text-align:left}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.25rem}
.muted{color:#6b7280}code{font-size:.9em}`

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// Index lists the registered schemas with links to their templates.
func Index(groups []SchemaGroup, importsEnabled bool) templ.Component {
	return page("csvmap", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.print("<h1>csvmap</h1>")
		if !importsEnabled {
			ew.print(`<p class="muted">Imports are disabled: no database configured.</p>`)
		}
		for _, g := range groups {
			ew.printf("<h2>%s</h2><table><tr><th>Key</th><th>Label</th><th>Table</th><th>Template</th></tr>", templ.EscapeString(g.Name))
			for _, s := range g.Schemas {
				ew.printf(`<tr><td><code>%s</code></td><td>%s</td><td>%s</td><td><a href="%s">download</a></td></tr>`,
					templ.EscapeString(s.Key),
					templ.EscapeString(s.Label),
					templ.EscapeString(s.Table),
					templ.EscapeString("/api/template/"+s.Key))
			}
			ew.print("</table>")
		}
		return ew.err
	}))
}

// ReportPage shows the outcome of a job.
func ReportPage(r *core.Report) templ.Component {
	return page("Report "+r.ID.String(), templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf("<h1>%s <span class=\"muted\">%s</span></h1>", templ.EscapeString(r.SchemaKey), templ.EscapeString(r.FileName))
		ew.print("<table>")
		for _, row := range [][2]string{
			{"Mode", r.Mode},
			{"Rows", strconv.FormatInt(r.TotalRows, 10)},
			{"Valid", strconv.FormatInt(r.Valid, 10)},
			{"Invalid", strconv.FormatInt(r.Invalid, 10)},
			{"Skipped", strconv.FormatInt(r.Skipped, 10)},
			{"Inserted", strconv.FormatInt(r.Inserted, 10)},
			{"Duration", r.Duration.String()},
		} {
			ew.printf("<tr><th>%s</th><td>%s</td></tr>", row[0], templ.EscapeString(row[1]))
		}
		ew.print("</table>")

		if len(r.FailedRows) > 0 {
			ew.printf(`<h2>Failed rows</h2><p><a href="%s">Download failed rows</a></p>`,
				templ.EscapeString("/api/reports/"+r.ID.String()+"/failed-rows"))
			ew.print("<table><tr><th>Line</th><th>Error</th></tr>")
			for _, f := range r.FailedRows {
				ew.printf("<tr><td>%d</td><td>%s</td></tr>", f.LineNumber, templ.EscapeString(f.Reason))
			}
			ew.print("</table>")
			if r.FailedTruncated {
				ew.print(`<p class="muted">More rows failed than are listed.</p>`)
			}
		}

		if len(r.Items) > 0 {
			ew.print("<h2>Items</h2><table>")
			for i, item := range r.Items {
				if i == maxRenderedItems {
					break
				}
				data, err := json.Marshal(item)
				if err != nil {
					data = []byte(fmt.Sprint(item))
				}
				ew.printf("<tr><td><code>%s</code></td></tr>", templ.EscapeString(string(data)))
			}
			ew.print("</table>")
			if r.ItemsTruncated || len(r.Items) > maxRenderedItems {
				ew.print(`<p class="muted">Only the first items are shown.</p>`)
			}
		}
		return ew.err
	}))
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<div class="alert" role="alert"><strong>%s</strong>`, templ.EscapeString(message))
		if action != "" {
			ew.printf("<p>%s</p>", templ.EscapeString(action))
		}
		ew.printf(`<p class="muted">Code: %s</p></div>`, templ.EscapeString(code))
		return ew.err
	})
}

// ErrorPage wraps ErrorAlert in a full page.
func ErrorPage(message, action, code string) templ.Component {
	return page("Error", ErrorAlert(message, action, code))
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) print(s string) {
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}
