package warehouse

import "github.com/shopspring/decimal"

// Row types mirror the columns of the precomputed analytic views. Dates stay
// as YYYY-MM-DD strings; the views own all analytic semantics.

// AnomalyRow is one contributor to a detected anomaly (VW_ANOMALY_ATTRIBUTION).
type AnomalyRow struct {
	AnomalyDate       string  `json:"anomaly_date"`
	UserName          string  `json:"user_name"`
	RoleName          string  `json:"role_name"`
	WarehouseName     string  `json:"warehouse_name"`
	QueryCount        int64   `json:"query_count"`
	ContributionPct   float64 `json:"execution_time_contribution_pct"`
	RiskLevel         string  `json:"risk_level"`
	BehaviorPattern   string  `json:"behavior_pattern"`
	RecommendedAction string  `json:"recommended_action"`
}

// CostRow is one user/day cost attribution record (VW_COST_ATTRIBUTION).
type CostRow struct {
	CostDate      string          `json:"cost_date"`
	UserName      string          `json:"user_name"`
	RoleName      string          `json:"role_name"`
	WarehouseName string          `json:"warehouse_name"`
	Credits       decimal.Decimal `json:"total_daily_credits"`
	QueryCount    int64           `json:"daily_query_count"`
	AvgExecTime   float64         `json:"avg_query_execution_time"`
}

// PatternRow is one behavioral pattern observation (VW_BEHAVIORAL_PATTERNS).
type PatternRow struct {
	ActivityDate      string  `json:"activity_date"`
	UserName          string  `json:"user_name"`
	RoleName          string  `json:"role_name"`
	ActivityHour      int64   `json:"activity_hour"`
	QueryCount        int64   `json:"query_count"`
	DeviationScore    float64 `json:"query_deviation_score"`
	Classification    string  `json:"behavior_classification"`
	PatternType       string  `json:"pattern_type"`
	TimeClass         string  `json:"time_classification"`
	RiskLevel         string  `json:"risk_level"`
	RecommendedAction string  `json:"recommended_action"`
}

// SecurityRow is one user/day security posture record (VW_SECURITY_COMPLIANCE).
type SecurityRow struct {
	LoginDate          string `json:"login_date"`
	UserName           string `json:"user_name"`
	FailedLogins       int64  `json:"failed_logins"`
	MFAStatus          string `json:"mfa_compliance_status"`
	PasswordOnlyLogins int64  `json:"password_only_logins"`
	RiskLevel          string `json:"security_risk_level"`
}

// RecommendationRow is one contextual recommendation (VW_CONTEXTUAL_RECOMMENDATIONS).
type RecommendationRow struct {
	EventDate          string `json:"event_date"`
	RecommendationType string `json:"recommendation_type"`
	UserName           string `json:"user_name"`
	RoleName           string `json:"role_name"`
	Priority           string `json:"priority"`
	IssueDescription   string `json:"issue_description"`
	RecommendedActions string `json:"recommended_actions"`
}

// ConsumptionRow is one role/day data consumption record (VW_DATA_CONSUMPTION_BY_ROLE).
type ConsumptionRow struct {
	UsageDate         string  `json:"usage_date"`
	RoleName          string  `json:"role_name"`
	TotalQueries      int64   `json:"total_queries"`
	GBScanned         float64 `json:"gb_data_scanned"`
	ActiveUsers       int64   `json:"active_users"`
	DatabasesAccessed int64   `json:"databases_accessed"`
}

// WriteActivityRow is one role/day write activity record (VW_DATA_WRITE_ACTIVITY_BY_ROLE).
type WriteActivityRow struct {
	ActivityDate      string  `json:"activity_date"`
	RoleName          string  `json:"role_name"`
	TotalWriteQueries int64   `json:"total_write_queries"`
	RowsInserted      int64   `json:"total_rows_inserted"`
	RowsUpdated       int64   `json:"total_rows_updated"`
	GBWritten         float64 `json:"gb_written_daily"`
}

// CostContributor is a per-user credit total, used for the home-page top-N chart.
type CostContributor struct {
	UserName string          `json:"user_name"`
	RoleName string          `json:"role_name"`
	Credits  decimal.Decimal `json:"total_credits"`
	Queries  int64           `json:"total_queries"`
}

// HomeMetrics are the executive-summary scalars on the home page.
type HomeMetrics struct {
	AnomalyCount      int64           `json:"anomaly_count"`
	HighPriorityCount int64           `json:"high_priority_count"`
	TotalCostUSD      decimal.Decimal `json:"total_cost_usd"`
	SecurityIssues    int64           `json:"security_issues"`
}
