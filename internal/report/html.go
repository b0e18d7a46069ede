// internal/report/html.go
package report

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// HTMLReporter renders a self-contained single-page report.
type HTMLReporter struct {
	writer io.WriteCloser
	tmpl   *template.Template
}

// NewHTMLReporter takes ownership of the writer.
func NewHTMLReporter(writer io.WriteCloser) *HTMLReporter {
	tmpl := template.Must(template.New("report").Funcs(template.FuncMap{
		"round": func(d time.Duration) string { return d.Round(time.Millisecond).String() },
		"rfc3339": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.RFC3339)
		},
	}).Parse(htmlReportTemplate))
	return &HTMLReporter{writer: writer, tmpl: tmpl}
}

func (r *HTMLReporter) Write(run *RunReport) error {
	run.Recompute()
	if err := r.tmpl.Execute(r.writer, run); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

func (r *HTMLReporter) Close() error {
	return r.writer.Close()
}

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.SuiteName}} &mdash; run {{.RunID}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #1b1b1b; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
tr.passed td.status { color: #0a7a2f; font-weight: 600; }
tr.failed td.status { color: #b3261e; font-weight: 600; }
tr.skipped td.status { color: #8a8a8a; }
.meta { color: #555; font-size: 0.9rem; }
.error { color: #b3261e; font-family: monospace; white-space: pre-wrap; }
.attachments a { margin-right: 0.8rem; }
.totals span { margin-right: 1.2rem; }
</style>
</head>
<body>
<h1>{{.SuiteName}}</h1>
<p class="meta">
Run {{.RunID}} against {{.BaseURL}}<br>
Started {{rfc3339 .StartedAt}}, took {{round .Duration}}
</p>
<p class="totals">
<span>Total: {{.Totals.Total}}</span>
<span>Passed: {{.Totals.Passed}}</span>
<span>Failed: {{.Totals.Failed}}</span>
<span>Skipped: {{.Totals.Skipped}}</span>
</p>
<table>
<thead><tr><th>#</th><th>Scenario</th><th>Status</th><th>Duration</th><th>Attempts</th><th>Detail</th></tr></thead>
<tbody>
{{range .Scenarios}}
<tr class="{{.Status}}">
<td>{{.Order}}</td>
<td>{{.Name}}</td>
<td class="status">{{.Status}}</td>
<td>{{round .Duration}}</td>
<td>{{.Attempts}}</td>
<td>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
{{if .Attachments}}<div class="attachments">{{range .Attachments}}<a href="{{.Path}}">{{.Name}}</a>{{end}}</div>{{end}}
</td>
</tr>
{{end}}
</tbody>
</table>
</body>
</html>
`
