// Package report assembles the downloadable business report from selected
// dashboard sections over a date range. It reads through the warehouse
// store; rendering is a plain document, layout styling is out of scope.
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/comigor/snowpatrol/internal/logger"
	"github.com/comigor/snowpatrol/internal/warehouse"
)

// Section names selectable for a report, in render order.
const (
	SectionExecutiveSummary = "Executive Summary"
	SectionUnusualActivity  = "Unusual Activity"
	SectionResourceCosts    = "Resource Costs"
	SectionSecurityAccess   = "Security & Access"
	SectionActionItems      = "Action Items"
)

// AllSections lists every selectable section in render order.
var AllSections = []string{
	SectionExecutiveSummary,
	SectionUnusualActivity,
	SectionResourceCosts,
	SectionSecurityAccess,
	SectionActionItems,
}

// Generator builds report documents from warehouse data.
type Generator struct {
	store *warehouse.Store
}

// NewGenerator creates a report generator over the warehouse store.
func NewGenerator(store *warehouse.Store) *Generator {
	return &Generator{store: store}
}

// Filename returns the canonical download name for a range.
func Filename(r warehouse.DateRange) string {
	return fmt.Sprintf("Business_Report_%s_%s.md",
		r.Start.Format("20060102"), r.End.Format("20060102"))
}

// Generate renders the selected sections for the range. At least one known
// section must be selected. A failing query degrades its own section to an
// empty-state note without aborting the rest of the document.
func (g *Generator) Generate(ctx context.Context, sections []string, r warehouse.DateRange) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("at least one report section must be selected")
	}
	selected := map[string]bool{}
	for _, s := range sections {
		known := false
		for _, name := range AllSections {
			if s == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown report section %q", s)
		}
		selected[s] = true
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Behavior Intelligence Business Report\n\n")
	fmt.Fprintf(&buf, "**Period**: %s\n\n", r.Label())

	for _, name := range AllSections {
		if !selected[name] {
			continue
		}
		fmt.Fprintf(&buf, "## %s\n\n", name)
		if err := g.renderSection(ctx, &buf, name, r); err != nil {
			logger.L.Warn("report section query failed", "section", name, "error", err)
			fmt.Fprintf(&buf, "_No data available for this section._\n\n")
		}
	}
	return buf.Bytes(), nil
}

func (g *Generator) renderSection(ctx context.Context, buf *bytes.Buffer, name string, r warehouse.DateRange) error {
	switch name {
	case SectionExecutiveSummary:
		m, err := g.store.HomeMetrics(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s\n\n", warehouse.HomeSummary(m).Text)

	case SectionUnusualActivity:
		rows, err := g.store.AnomalyAttribution(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s\n\n", warehouse.AnomalySummary(rows).Text)
		writeTable(buf, []string{"Date", "User", "Warehouse", "Contribution %", "Risk"}, len(rows), func(i int) []string {
			a := rows[i]
			return []string{a.AnomalyDate, a.UserName, a.WarehouseName,
				fmt.Sprintf("%.1f", a.ContributionPct), a.RiskLevel}
		})

	case SectionResourceCosts:
		rows, err := g.store.CostAttribution(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s\n\n", warehouse.CostSummary(rows).Text)
		top, err := g.store.TopCostContributors(ctx, r)
		if err != nil {
			return err
		}
		writeTable(buf, []string{"User", "Role", "Credits", "Queries"}, len(top), func(i int) []string {
			c := top[i]
			return []string{c.UserName, c.RoleName, c.Credits.StringFixed(2), fmt.Sprintf("%d", c.Queries)}
		})

	case SectionSecurityAccess:
		rows, err := g.store.SecurityCompliance(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s\n\n", warehouse.SecuritySummary(rows).Text)
		var highRisk []warehouse.SecurityRow
		for _, row := range rows {
			if strings.Contains(row.RiskLevel, "High Risk") {
				highRisk = append(highRisk, row)
			}
		}
		writeTable(buf, []string{"Date", "User", "Failed Logins", "MFA", "Risk"}, len(highRisk), func(i int) []string {
			s := highRisk[i]
			return []string{s.LoginDate, s.UserName, fmt.Sprintf("%d", s.FailedLogins), s.MFAStatus, s.RiskLevel}
		})

	case SectionActionItems:
		rows, err := g.store.Recommendations(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s\n\n", warehouse.RecommendationSummary(rows).Text)
		for _, rec := range rows {
			fmt.Fprintf(buf, "- **%s** [%s] %s (%s): %s. Action: %s\n",
				rec.Priority, rec.EventDate, rec.UserName, rec.RecommendationType,
				rec.IssueDescription, rec.RecommendedActions)
		}
		fmt.Fprintf(buf, "\n")
	}
	return nil
}

func writeTable(buf *bytes.Buffer, header []string, n int, row func(i int) []string) {
	if n == 0 {
		fmt.Fprintf(buf, "_No rows in the selected period._\n\n")
		return
	}
	fmt.Fprintf(buf, "| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(buf, "| %s |\n", strings.Join(seps, " | "))
	for i := 0; i < n; i++ {
		fmt.Fprintf(buf, "| %s |\n", strings.Join(row(i), " | "))
	}
	fmt.Fprintf(buf, "\n")
}
