package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// RenderText writes a plain-text summary suitable for terminal output.
func RenderText(w io.Writer, s Summary) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Ingestion report for %s (%s)\n", s.VendorID, s.FileName)
	fmt.Fprintf(&b, "Generated %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	fmt.Fprintf(&b, "Mode:       %s (path: %s)\n", s.Mode, s.Path)
	fmt.Fprintf(&b, "Verdict:    %s", s.Verdict)
	if s.Passed {
		b.WriteString(" (passed)\n")
	} else {
		b.WriteString(" (not passed)\n")
	}
	fmt.Fprintf(&b, "Confidence: %.2f\n\n", s.MappingConfidence)

	fmt.Fprintf(&b, "Rows:       %d total, %d ok, %d failed, %d skipped\n",
		s.TotalRows, s.SuccessfulRows, s.FailedRows, s.SkippedRows)
	fmt.Fprintf(&b, "Duplicates: %d\n", s.Duplicates)
	fmt.Fprintf(&b, "Issues:     %d warnings, %d row errors\n\n", s.Warnings, s.RowErrors)

	fmt.Fprintf(&b, "Quality:    completeness %.2f, consistency %.2f, accuracy %.2f\n",
		s.Completeness, s.Consistency, s.Accuracy)
	fmt.Fprintf(&b, "Value:      %.2f total, finance penetration %.0f%%, approval rate %.0f%%\n",
		s.TotalValue, s.FinancePenetration()*100, s.ApprovalRate()*100)

	writeCounts(&b, "Deal size bands", s.BandCounts)
	writeCounts(&b, "Sales channels", s.ChannelCounts)
	writeCounts(&b, "Customer segments", s.SegmentCounts)
	writeCounts(&b, "Orders by month", s.MonthCounts)
	if len(s.UnusedHeaders) > 0 {
		fmt.Fprintf(&b, "\nUnmapped source columns: %s\n", strings.Join(s.UnusedHeaders, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCounts(b *strings.Builder, title string, counts []LabelCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(b, "  %-14s %d\n", c.Label, c.Count)
	}
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Ingestion report: {{.VendorID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin: 1em 0; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: left; }
.passed { color: #2a7a2a; }
.failed { color: #a02a2a; }
</style>
</head>
<body>
<h1>Ingestion report: {{.VendorID}}</h1>
<p>{{.FileName}} &mdash; generated {{.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}</p>

<h2>Run</h2>
<table>
<tr><th>Mode</th><td>{{.Mode}} ({{.Path}})</td></tr>
<tr><th>Verdict</th><td class="{{if .Passed}}passed{{else}}failed{{end}}">{{.Verdict}}{{if .Passed}} (passed){{else}} (not passed){{end}}</td></tr>
<tr><th>Mapping confidence</th><td>{{printf "%.2f" .MappingConfidence}}</td></tr>
</table>

<h2>Rows</h2>
<table>
<tr><th>Total</th><td>{{.TotalRows}}</td></tr>
<tr><th>Successful</th><td>{{.SuccessfulRows}}</td></tr>
<tr><th>Failed</th><td>{{.FailedRows}}</td></tr>
<tr><th>Skipped</th><td>{{.SkippedRows}}</td></tr>
<tr><th>Duplicates</th><td>{{.Duplicates}}</td></tr>
<tr><th>Warnings</th><td>{{.Warnings}}</td></tr>
</table>

<h2>Quality</h2>
<table>
<tr><th>Completeness</th><td>{{printf "%.2f" .Completeness}}</td></tr>
<tr><th>Consistency</th><td>{{printf "%.2f" .Consistency}}</td></tr>
<tr><th>Accuracy</th><td>{{printf "%.2f" .Accuracy}}</td></tr>
</table>

{{if .BandCounts}}
<h2>Deal size bands</h2>
<table>
{{range .BandCounts}}<tr><th>{{.Label}}</th><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .ChannelCounts}}
<h2>Sales channels</h2>
<table>
{{range .ChannelCounts}}<tr><th>{{.Label}}</th><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .SegmentCounts}}
<h2>Customer segments</h2>
<table>
{{range .SegmentCounts}}<tr><th>{{.Label}}</th><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .MonthCounts}}
<h2>Orders by month</h2>
<table>
{{range .MonthCounts}}<tr><th>{{.Label}}</th><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}

{{if .UnusedHeaders}}
<h2>Unmapped source columns</h2>
<ul>
{{range .UnusedHeaders}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
</body>
</html>
`))

// RenderHTML writes the summary as a standalone HTML page.
func RenderHTML(w io.Writer, s Summary) error {
	return htmlTemplate.Execute(w, s)
}
