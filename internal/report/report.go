// Package report builds standalone printable SPC reports: a single
// self-contained HTML page with inline SVG charts, suitable for
// printing or archiving without any external assets.
package report

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"cellstatus-platform/internal/chart"
	"cellstatus-platform/internal/services"
)

const placeholder = "—"

// fmtValue renders a statistic, substituting the placeholder for
// non-finite values. The engines deliberately propagate NaN/Inf
// instead of failing; the report is where that contract surfaces.
func fmtValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return placeholder
	}
	return fmt.Sprintf("%.4g", v)
}

type statRow struct {
	Label string
	Value string
}

type reportData struct {
	Title        string
	GeneratedAt  string
	SampleCount  int
	Rows         []statRow
	RunChartSVG  template.HTML
	HistogramSVG template.HTML
}

var reportTemplate = template.Must(template.New("spc-report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; margin: 1em 0; }
td, th { border: 1px solid #bbb; padding: 4px 10px; text-align: left; }
.meta { color: #666; font-size: 0.85em; }
svg { margin: 1em 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">Generated {{.GeneratedAt}} &middot; {{.SampleCount}} samples</p>
<table>
<tr><th>Statistic</th><th>Value</th></tr>
{{range .Rows}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
<h2>Run chart</h2>
{{.RunChartSVG}}
<h2>Histogram</h2>
{{.HistogramSVG}}
</body>
</html>
`))

// Build renders a standalone HTML report for one characteristic group.
func Build(group *services.SpcGroup) (string, error) {
	data := reportData{
		Title:       fmt.Sprintf("SPC Report — %s / %s", group.PartNumber, group.Characteristic),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		SampleCount: len(group.Samples),
	}

	if group.Stats != nil {
		st := group.Stats
		data.Rows = []statRow{
			{"n", fmt.Sprintf("%d", st.N)},
			{"Mean", fmtValue(st.Mean)},
			{"Std Dev", fmtValue(st.StdDev)},
			{"Min", fmtValue(st.Min)},
			{"Max", fmtValue(st.Max)},
			{"Range", fmtValue(st.Range)},
			{"Nominal", fmtValue(st.Nominal)},
			{"Cp", fmtValue(st.Cp)},
			{"Cpk", fmtValue(st.Cpk)},
			{"Pp", fmtValue(st.Pp)},
			{"Ppk", fmtValue(st.Ppk)},
			{"Out of tolerance", fmt.Sprintf("%d", st.OutOfTol)},
		}
	}

	data.RunChartSVG = template.HTML(runChartSVG(group))
	data.HistogramSVG = template.HTML(histogramSVG(group.Histogram))

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return sb.String(), nil
}

// runChartSVG draws the run chart series plus mean, control and spec
// reference lines on the series' own y-mapping.
func runChartSVG(group *services.SpcGroup) string {
	series := group.RunChart
	if len(series.Points) == 0 {
		return `<p>No data.</p>`
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		series.Width, series.Height, series.Width, series.Height)

	refLine := func(value float64, color string) {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return
		}
		y := series.YFor(value)
		fmt.Fprintf(&sb, `<line x1="0" y1="%.2f" x2="%.0f" y2="%.2f" stroke="%s" stroke-dasharray="4 3"/>`,
			y, series.Width, y, color)
	}

	if group.Stats != nil {
		refLine(group.Stats.Mean, "#2a7")
		refLine(group.Stats.Mean+3*group.Stats.StdDev, "#e80")
		refLine(group.Stats.Mean-3*group.Stats.StdDev, "#e80")
	}
	if group.Limits.USL != nil {
		refLine(*group.Limits.USL, "#c22")
	}
	if group.Limits.LSL != nil {
		refLine(*group.Limits.LSL, "#c22")
	}

	var path strings.Builder
	for i, p := range series.Points {
		if i == 0 {
			fmt.Fprintf(&path, "M%.2f %.2f", p.X, p.Y)
		} else {
			fmt.Fprintf(&path, " L%.2f %.2f", p.X, p.Y)
		}
	}
	fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="#345" stroke-width="1.5"/>`, path.String())

	for _, p := range series.Points {
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="2.5" fill="#345"/>`, p.X, p.Y)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// histogramSVG draws bin counts as vertical bars scaled to the tallest
// bin.
func histogramSVG(bins []chart.Bin) string {
	if len(bins) == 0 {
		return `<p>No data.</p>`
	}

	const width, height = 720.0, 200.0

	maxCount := 0
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		width, height, width, height)

	barWidth := width / float64(len(bins))
	for i, b := range bins {
		barHeight := float64(b.Count) / float64(maxCount) * (height - 20)
		x := float64(i) * barWidth
		y := height - barHeight
		fmt.Fprintf(&sb, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#579" stroke="#fff"><title>[%.4g, %.4g): %d</title></rect>`,
			x, y, barWidth, barHeight, b.Lower, b.Upper, b.Count)
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}
