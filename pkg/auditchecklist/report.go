package auditchecklist

import (
	"fmt"
	"strings"
)

// ReportOptions controls what ExportMarkdown includes.
type ReportOptions struct {
	FailuresOnly       bool
	IncludeDescriptions bool
}

// ExportMarkdown renders an audit as a Markdown report, grouped by category
// in catalog order, per spec §4.6's report export.
func ExportMarkdown(audit Audit, catalog []Item, opts ReportOptions) string {
	itemByID := make(map[string]Item, len(catalog))
	for _, item := range catalog {
		itemByID[item.ID] = item
	}
	resultByID := make(map[string]CheckResult, len(audit.Results))
	for _, res := range audit.Results {
		resultByID[res.ItemID] = res
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Audit report: %s\n\n", audit.ContractID)
	fmt.Fprintf(&b, "**Overall score:** %.1f/100\n\n**Badge:** %s\n\n", audit.OverallScore, audit.Badge)

	b.WriteString("## Category scores\n\n")
	b.WriteString("| Category | Passed | Applicable | Score |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, cs := range audit.CategoryScores {
		fmt.Fprintf(&b, "| %s | %d | %d | %.0f%% |\n", cs.Category, cs.Passed, cs.Applicable, cs.ScorePct)
	}
	b.WriteString("\n")

	categories := categoriesInOrder(catalog)
	for _, cat := range categories {
		var rows []string
		for _, item := range catalog {
			if item.Category != cat {
				continue
			}
			res, ok := resultByID[item.ID]
			if !ok {
				continue
			}
			if opts.FailuresOnly && res.Status != StatusFailed {
				continue
			}
			rows = append(rows, renderItem(item, res, opts))
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", cat)
		for _, row := range rows {
			b.WriteString(row)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderItem(item Item, res CheckResult, opts ReportOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] **%s** (%s)\n", statusMark(res.Status), item.Title, item.Severity)
	if opts.IncludeDescriptions && item.Description != "" {
		fmt.Fprintf(&b, "  - %s\n", item.Description)
	}
	if res.Evidence != "" {
		fmt.Fprintf(&b, "  - Evidence: `%s`\n", res.Evidence)
	}
	if res.Status == StatusFailed && item.Remediation != "" {
		fmt.Fprintf(&b, "  - Remediation: %s\n", item.Remediation)
	}
	return b.String()
}

func statusMark(s Status) string {
	switch s {
	case StatusPassed:
		return "x"
	case StatusFailed:
		return "!"
	default:
		return " "
	}
}

func categoriesInOrder(catalog []Item) []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, item := range catalog {
		if seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, item.Category)
	}
	return out
}
