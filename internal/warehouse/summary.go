package warehouse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Per-page scalar aggregates and the preformatted data-summary strings fed
// into the chat context. The wording mirrors what the dashboard shows.

// Summary pairs the on-screen metrics of a section with its chat context text.
type Summary struct {
	Metrics map[string]any `json:"metrics"`
	Text    string         `json:"-"`
}

// HomeSummary renders the executive-summary context block.
func HomeSummary(m HomeMetrics) Summary {
	text := fmt.Sprintf(`Key Metrics:
- Active Anomalies: %d
- High Priority Actions: %d
- Total Cost: $%s USD
- Security Issues: %d`,
		m.AnomalyCount, m.HighPriorityCount, m.TotalCostUSD.StringFixed(2), m.SecurityIssues)
	return Summary{
		Metrics: map[string]any{
			"anomaly_count":       m.AnomalyCount,
			"high_priority_count": m.HighPriorityCount,
			"total_cost_usd":      m.TotalCostUSD,
			"security_issues":     m.SecurityIssues,
		},
		Text: text,
	}
}

// AnomalySummary aggregates anomaly contributors for the anomalies section.
func AnomalySummary(rows []AnomalyRow) Summary {
	if len(rows) == 0 {
		return Summary{
			Metrics: map[string]any{"total_contributors": 0},
			Text:    "No anomalies detected in the selected date range.",
		}
	}

	var highRisk int
	var pctSum float64
	for _, r := range rows {
		if strings.Contains(r.RiskLevel, "High Risk") {
			highRisk++
		}
		pctSum += r.ContributionPct
	}
	avg := pctSum / float64(len(rows))

	top := make([]AnomalyRow, len(rows))
	copy(top, rows)
	sort.SliceStable(top, func(i, j int) bool { return top[i].ContributionPct > top[j].ContributionPct })
	n := 3
	if len(top) < n {
		n = len(top)
	}
	names := make([]string, 0, n)
	for _, r := range top[:n] {
		names = append(names, r.UserName)
	}

	text := fmt.Sprintf(`Anomaly Statistics:
- Total Contributors: %d
- High Risk Contributors: %d
- Average Contribution: %.1f%%
- Top 3 Users: %s`,
		len(rows), highRisk, avg, strings.Join(names, ", "))
	return Summary{
		Metrics: map[string]any{
			"total_contributors":     len(rows),
			"high_risk_contributors": highRisk,
			"avg_contribution_pct":   avg,
		},
		Text: text,
	}
}

// CostSummary aggregates cost attribution rows for the cost section.
func CostSummary(rows []CostRow) Summary {
	if len(rows) == 0 {
		return Summary{
			Metrics: map[string]any{"total_credits": decimal.Zero},
			Text:    "No cost data available in the selected date range.",
		}
	}

	totalCredits := decimal.Zero
	var totalQueries int64
	users := map[string]decimal.Decimal{}
	for _, r := range rows {
		totalCredits = totalCredits.Add(r.Credits)
		totalQueries += r.QueryCount
		users[r.UserName] = users[r.UserName].Add(r.Credits)
	}
	topUser, topCredits := "", decimal.Zero
	for u, c := range users {
		if c.GreaterThan(topCredits) || topUser == "" {
			topUser, topCredits = u, c
		}
	}
	estimated := totalCredits.Mul(decimal.NewFromInt(2))

	text := fmt.Sprintf(`Cost Analysis Summary:
- Total Credits: %s
- Estimated Cost: $%s
- Total Queries: %d
- Active Users: %d
- Top Cost User: %s (%s credits)`,
		totalCredits.StringFixed(2), estimated.StringFixed(2), totalQueries, len(users),
		topUser, topCredits.StringFixed(2))
	return Summary{
		Metrics: map[string]any{
			"total_credits":      totalCredits,
			"estimated_cost_usd": estimated,
			"total_queries":      totalQueries,
			"active_users":       len(users),
		},
		Text: text,
	}
}

// PatternSummary aggregates behavioral pattern rows.
func PatternSummary(rows []PatternRow) Summary {
	if len(rows) == 0 {
		return Summary{
			Metrics: map[string]any{"anomalous_patterns": 0},
			Text:    "No behavioral patterns detected in the selected date range.",
		}
	}

	var anomalous, highRisk, offHours int
	users := map[string]struct{}{}
	patternCounts := map[string]int{}
	for _, r := range rows {
		if r.Classification == "Highly Anomalous" || r.Classification == "Anomalous" {
			anomalous++
		}
		if r.RiskLevel == "High Risk" {
			highRisk++
		}
		if r.TimeClass == "Off Hours" {
			offHours++
		}
		users[r.UserName] = struct{}{}
		patternCounts[r.PatternType]++
	}
	mostCommon, best := "", 0
	for p, n := range patternCounts {
		if n > best {
			mostCommon, best = p, n
		}
	}

	text := fmt.Sprintf(`Behavioral Pattern Summary:
- Anomalous Patterns: %d
- High Risk Behaviors: %d
- Off-Hours Activity: %d
- Users with Patterns: %d
- Most Common Pattern: %s`,
		anomalous, highRisk, offHours, len(users), mostCommon)
	return Summary{
		Metrics: map[string]any{
			"anomalous_patterns":  anomalous,
			"high_risk_behaviors": highRisk,
			"off_hours_activity":  offHours,
			"users_with_patterns": len(users),
		},
		Text: text,
	}
}

// SecuritySummary aggregates security compliance rows.
func SecuritySummary(rows []SecurityRow) Summary {
	if len(rows) == 0 {
		return Summary{
			Metrics: map[string]any{"high_risk_users": 0},
			Text:    "No security data available in the selected date range.",
		}
	}

	var highRisk, mfaDisabled, passwordIssues int
	var totalFailed int64
	for _, r := range rows {
		if strings.Contains(r.RiskLevel, "High Risk") {
			highRisk++
		}
		totalFailed += r.FailedLogins
		if r.MFAStatus != "MFA Compliant" {
			mfaDisabled++
		}
		if r.PasswordOnlyLogins > 0 {
			passwordIssues++
		}
	}

	text := fmt.Sprintf(`Security Summary:
- High Risk Users: %d
- Total Failed Login Attempts: %d
- Users without MFA: %d
- Password Issues: %d`,
		highRisk, totalFailed, mfaDisabled, passwordIssues)
	return Summary{
		Metrics: map[string]any{
			"high_risk_users":   highRisk,
			"failed_logins":     totalFailed,
			"users_without_mfa": mfaDisabled,
			"password_issues":   passwordIssues,
		},
		Text: text,
	}
}

// RecommendationSummary aggregates contextual recommendations.
func RecommendationSummary(rows []RecommendationRow) Summary {
	if len(rows) == 0 {
		return Summary{
			Metrics: map[string]any{"high_priority": 0},
			Text:    "No recommendations in the selected date range.",
		}
	}

	var high, medium, low int
	typeCounts := map[string]int{}
	for _, r := range rows {
		switch r.Priority {
		case "High Priority":
			high++
		case "Medium Priority":
			medium++
		default:
			low++
		}
		typeCounts[r.RecommendationType]++
	}
	mostCommon, best := "", 0
	for t, n := range typeCounts {
		if n > best {
			mostCommon, best = t, n
		}
	}

	text := fmt.Sprintf(`Recommendations Summary:
- High Priority: %d
- Medium Priority: %d
- Low Priority: %d
- Most Common Type: %s`,
		high, medium, low, mostCommon)
	return Summary{
		Metrics: map[string]any{
			"high_priority":   high,
			"medium_priority": medium,
			"low_priority":    low,
		},
		Text: text,
	}
}

// ActivitySummary aggregates data consumption and write activity rows.
func ActivitySummary(consumption []ConsumptionRow, writes []WriteActivityRow) Summary {
	topConsumer, topWriter := "N/A", "N/A"
	var gbScanned float64
	var rowsInserted int64
	if len(consumption) > 0 {
		topConsumer = consumption[0].RoleName
		for _, c := range consumption {
			gbScanned += c.GBScanned
		}
	}
	if len(writes) > 0 {
		topWriter = writes[0].RoleName
		for _, w := range writes {
			rowsInserted += w.RowsInserted
		}
	}

	text := fmt.Sprintf(`Data Activity Summary:
- Top Consumer Role: %s
- Total GB Scanned: %.2f
- Top Write Role: %s
- Total Rows Inserted: %d`,
		topConsumer, gbScanned, topWriter, rowsInserted)
	return Summary{
		Metrics: map[string]any{
			"top_consumer_role":   topConsumer,
			"total_gb_scanned":    gbScanned,
			"top_write_role":      topWriter,
			"total_rows_inserted": rowsInserted,
		},
		Text: text,
	}
}
