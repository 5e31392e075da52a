// Package report renders the human-readable summary of a finished run as
// markdown and as a standalone HTML page.
package report

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"myelinfc/domain/coupling"
	"myelinfc/domain/run"
	"myelinfc/internal/errors"
)

const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

const reportTemplate = `# Myelin/FC coupling: {{ .Manifest.Config.FCLabel }}

| | |
|---|---|
| Run | ` + "`{{ .Manifest.RunID }}`" + ` |
| Version | {{ .Manifest.CodeVersion }} |
| Started | {{ .Manifest.StartedAt }} |
| Duration | {{ duration .Manifest }} |
| Fingerprint | ` + "`{{ .Manifest.Fingerprint.Fingerprint }}`" + ` |

## Configuration

- Dominance: {{ .Manifest.Config.Dominance }}
- Myelin bins: {{ .Manifest.Config.MyelinBins }}
- Standardize predictors: {{ .Manifest.Config.StandardizePredictors }}, response: {{ .Manifest.Config.StandardizeResponse }}
- Main levels: {{ levels .Manifest.Config.LevelsMain }}
- Binned levels: {{ levels .Manifest.Config.LevelsBinned }}{{ if .Manifest.Config.BinnedInteractions }} (with interactions){{ end }}

## Inputs

| Role | Source | Rows | Hash |
|---|---|---:|---|
{{- range .Manifest.Inputs }}
| {{ .Role }} | {{ cell .Source }} | {{ .Rows }} | ` + "`{{ .Hash }}`" + ` |
{{- end }}
{{ if .Profile }}
## Input profile

| Column | n | Missing | Mean | SD | Min | Median | Max | Skew | Outliers |
|---|---:|---:|---:|---:|---:|---:|---:|---:|---:|
{{- range .Profile }}
| {{ .Column }} | {{ .Count }} | {{ .Missing }} | {{ num .Mean }} | {{ num .StdDev }} | {{ num .Min }} | {{ num .Median }} | {{ num .Max }} | {{ num .Skewness }} | {{ .Outliers }} |
{{- end }}
{{ end }}
## Outputs

| File | Rows |
|---|---:|
{{- range .Manifest.Outputs }}
| {{ .Name }} | {{ .Rows }} |
{{- end }}
{{ if .Highlights }}
## Best fits

| Table | Group | Bin | Edges | R² | Adj. R² | Dominant term |
|---|---|---|---:|---:|---:|---|
{{- range .Highlights }}
| {{ .Table }} | {{ cell .Row.Key }} | {{ cell .Row.Bin }} | {{ .Row.NEdges }} | {{ num .Row.R2 }} | {{ num .Row.R2Adj }} | {{ dominant .Row }} |
{{- end }}
{{ end }}
{{- if .Correlations }}{{ if .Correlations.Rows }}
## FC correlations by myelin bin

| Bin |{{ range (index .Correlations.Rows 0).Correlations }} {{ .Predictor }} r | n |{{ end }}
|---|{{ range (index .Correlations.Rows 0).Correlations }}---:|---:|{{ end }}
{{- range .Correlations.Rows }}
| {{ .Bin }} |{{ range .Correlations }} {{ num .R }} | {{ .N }} |{{ end }}
{{- end }}
{{ end }}{{ end }}`

// Renderer produces report.md and report.html from a run summary
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the report template
func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"num":      formatNumber,
		"cell":     escapeCell,
		"levels":   joinLevels,
		"dominant": dominantTerm,
		"duration": func(m *run.Manifest) string {
			return m.FinishedAt.Sub(m.StartedAt).Round(time.Millisecond).String()
		},
	}
	return &Renderer{tmpl: template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate))}
}

// Render returns the markdown and HTML documents keyed by file name
func (r *Renderer) Render(ctx context.Context, summary run.Summary) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if summary.Manifest == nil {
		return nil, errors.InvalidInput("report needs a run manifest")
	}

	var md bytes.Buffer
	if err := r.tmpl.Execute(&md, summary); err != nil {
		return nil, errors.Wrap(err, "failed to render report")
	}

	return map[string][]byte{
		MarkdownFile: md.Bytes(),
		HTMLFile:     ToHTML(md.Bytes(), "myelinfc: "+summary.Manifest.Config.FCLabel),
	}, nil
}

// ToHTML converts markdown to a complete HTML page
func ToHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML(md, p, renderer)
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.IsInf(v, 0) {
		return coupling.FormatFloat(v)
	}
	return fmt.Sprintf("%.4g", v)
}

// escapeCell keeps a value inside one markdown table cell
func escapeCell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func joinLevels(levels []coupling.Level) string {
	if len(levels) == 0 {
		return "none"
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

// dominantTerm names the term with the largest dominance percentage
func dominantTerm(row coupling.ResultRow) string {
	best := -1
	for i, d := range row.Dominance {
		if math.IsNaN(d.Percent) {
			continue
		}
		if best < 0 || d.Percent > row.Dominance[best].Percent {
			best = i
		}
	}
	if best < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%s (%.1f%%)", row.Dominance[best].Term, row.Dominance[best].Percent)
}
