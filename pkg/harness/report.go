package harness

import (
	"fmt"
	"strings"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/artifact"
	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/catalog"
)

// reportData carries everything the human-readable report renders.
type reportData struct {
	RunID      string
	Phase      artifact.Phase
	Generated  string
	Iterations int
	Warmup     int
	Summaries  []QuerySummary
	Queries    []catalog.QuerySpec
}

// renderReport produces the markdown benchmark report: run header,
// per-query summary table and the literal SQL of every query for
// auditability.
func renderReport(data *reportData) string {
	var sb strings.Builder

	sb.Grow(4096)

	writeReportHeader(&sb, data)
	writeSummaryTable(&sb, data.Summaries)
	writeQueryText(&sb, data.Queries)

	return sb.String()
}

func writeReportHeader(sb *strings.Builder, data *reportData) {
	fmt.Fprintf(sb, "# Benchmarks (%s)\n\n", data.Phase)
	fmt.Fprintf(sb, "Run ID: `%s`\n\n", data.RunID)
	fmt.Fprintf(sb, "Generated (UTC): `%s`\n\n", data.Generated)
	fmt.Fprintf(sb, "Runs per query: `%d` (warmup: `%d`)\n\n",
		data.Iterations, data.Warmup)
}

func writeSummaryTable(sb *strings.Builder, summaries []QuerySummary) {
	sb.WriteString("## Summary (ms)\n\n")
	sb.WriteString("| query | count | min | max | mean | median |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|\n")

	for _, s := range summaries {
		fmt.Fprintf(sb, "| %s | %d | %.3f | %.3f | %.3f | %.3f |\n",
			s.Query, s.Count, s.MinMS, s.MaxMS, s.MeanMS, s.MedianMS)
	}

	sb.WriteByte('\n')
}

func writeQueryText(sb *strings.Builder, queries []catalog.QuerySpec) {
	sb.WriteString("## Queries\n\n")

	for _, q := range queries {
		fmt.Fprintf(sb, "### %s\n\n", q.ID)
		sb.WriteString("```sql\n")
		sb.WriteString(q.SQL)
		sb.WriteString("\n```\n\n")
	}
}
