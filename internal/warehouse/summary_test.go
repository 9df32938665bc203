package warehouse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestHomeSummary(t *testing.T) {
	s := HomeSummary(HomeMetrics{
		AnomalyCount:      4,
		HighPriorityCount: 2,
		TotalCostUSD:      decimal.NewFromFloat(24.5),
		SecurityIssues:    1,
	})
	require.Equal(t, int64(4), s.Metrics["anomaly_count"])
	require.Contains(t, s.Text, "Active Anomalies: 4")
	require.Contains(t, s.Text, "Total Cost: $24.50 USD")
	require.Contains(t, s.Text, "Security Issues: 1")
}

func TestAnomalySummary(t *testing.T) {
	rows := []AnomalyRow{
		{UserName: "ETL_LOADER", ContributionPct: 60, RiskLevel: "🔴 High Risk"},
		{UserName: "BI_ANALYST", ContributionPct: 25, RiskLevel: "🟡 Medium Risk"},
		{UserName: "DATA_SCIENTIST", ContributionPct: 10, RiskLevel: "🟢 Low Risk"},
		{UserName: "REPORT_BOT", ContributionPct: 5, RiskLevel: "🟢 Low Risk"},
	}
	s := AnomalySummary(rows)
	require.Equal(t, 4, s.Metrics["total_contributors"])
	require.Equal(t, 1, s.Metrics["high_risk_contributors"])
	require.InDelta(t, 25.0, s.Metrics["avg_contribution_pct"], 0.001)
	require.Contains(t, s.Text, "Average Contribution: 25.0%")
	require.Contains(t, s.Text, "Top 3 Users: ETL_LOADER, BI_ANALYST, DATA_SCIENTIST")
}

func TestAnomalySummaryEmpty(t *testing.T) {
	s := AnomalySummary(nil)
	require.Equal(t, 0, s.Metrics["total_contributors"])
	require.Equal(t, "No anomalies detected in the selected date range.", s.Text)
}

func TestCostSummary(t *testing.T) {
	rows := []CostRow{
		{UserName: "ETL_LOADER", Credits: decimal.NewFromFloat(8.25), QueryCount: 120},
		{UserName: "BI_ANALYST", Credits: decimal.NewFromFloat(3.75), QueryCount: 300},
		{UserName: "ETL_LOADER", Credits: decimal.NewFromFloat(2), QueryCount: 40},
	}
	s := CostSummary(rows)
	require.True(t, decimal.NewFromFloat(14).Equal(s.Metrics["total_credits"].(decimal.Decimal)))
	require.True(t, decimal.NewFromFloat(28).Equal(s.Metrics["estimated_cost_usd"].(decimal.Decimal)))
	require.Equal(t, int64(460), s.Metrics["total_queries"])
	require.Equal(t, 2, s.Metrics["active_users"])
	require.Contains(t, s.Text, "Estimated Cost: $28.00")
	require.Contains(t, s.Text, "Top Cost User: ETL_LOADER (10.25 credits)")
}

func TestCostSummaryEmpty(t *testing.T) {
	s := CostSummary(nil)
	require.Equal(t, "No cost data available in the selected date range.", s.Text)
}

func TestPatternSummary(t *testing.T) {
	rows := []PatternRow{
		{UserName: "A", Classification: "Highly Anomalous", RiskLevel: "High Risk", TimeClass: "Off Hours", PatternType: "Burst Activity"},
		{UserName: "A", Classification: "Normal", RiskLevel: "Low Risk", TimeClass: "Business Hours", PatternType: "Burst Activity"},
		{UserName: "B", Classification: "Anomalous", RiskLevel: "Medium Risk", TimeClass: "Business Hours", PatternType: "Steady Usage"},
	}
	s := PatternSummary(rows)
	require.Equal(t, 2, s.Metrics["anomalous_patterns"])
	require.Equal(t, 1, s.Metrics["high_risk_behaviors"])
	require.Equal(t, 1, s.Metrics["off_hours_activity"])
	require.Equal(t, 2, s.Metrics["users_with_patterns"])
	require.Contains(t, s.Text, "Most Common Pattern: Burst Activity")
}

func TestSecuritySummary(t *testing.T) {
	rows := []SecurityRow{
		{UserName: "A", FailedLogins: 5, MFAStatus: "MFA Missing", PasswordOnlyLogins: 3, RiskLevel: "🔴 High Risk"},
		{UserName: "B", FailedLogins: 0, MFAStatus: "MFA Compliant", PasswordOnlyLogins: 0, RiskLevel: "🟢 Low Risk"},
	}
	s := SecuritySummary(rows)
	require.Equal(t, 1, s.Metrics["high_risk_users"])
	require.Equal(t, int64(5), s.Metrics["failed_logins"])
	require.Equal(t, 1, s.Metrics["users_without_mfa"])
	require.Equal(t, 1, s.Metrics["password_issues"])
	require.Contains(t, s.Text, "Total Failed Login Attempts: 5")
}

func TestRecommendationSummary(t *testing.T) {
	rows := []RecommendationRow{
		{Priority: "High Priority", RecommendationType: "Security"},
		{Priority: "High Priority", RecommendationType: "Cost"},
		{Priority: "Medium Priority", RecommendationType: "Security"},
		{Priority: "Low Priority", RecommendationType: "Training"},
	}
	s := RecommendationSummary(rows)
	require.Equal(t, 2, s.Metrics["high_priority"])
	require.Equal(t, 1, s.Metrics["medium_priority"])
	require.Equal(t, 1, s.Metrics["low_priority"])
	require.Contains(t, s.Text, "Most Common Type: Security")
}

func TestActivitySummary(t *testing.T) {
	consumption := []ConsumptionRow{
		{RoleName: "ANALYTICS_ROLE", GBScanned: 10.5},
		{RoleName: "ETL_ROLE", GBScanned: 4.5},
	}
	writes := []WriteActivityRow{
		{RoleName: "ETL_ROLE", RowsInserted: 1000},
		{RoleName: "APP_ROLE", RowsInserted: 250},
	}
	s := ActivitySummary(consumption, writes)
	require.Equal(t, "ANALYTICS_ROLE", s.Metrics["top_consumer_role"])
	require.Equal(t, "ETL_ROLE", s.Metrics["top_write_role"])
	require.Contains(t, s.Text, "Total GB Scanned: 15.00")
	require.Contains(t, s.Text, "Total Rows Inserted: 1250")
}

func TestActivitySummaryEmpty(t *testing.T) {
	s := ActivitySummary(nil, nil)
	require.Contains(t, s.Text, "Top Consumer Role: N/A")
	require.Contains(t, s.Text, "Top Write Role: N/A")
}
