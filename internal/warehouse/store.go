package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	"github.com/shopspring/decimal"
)

// Fixed row limits per section. Each query is independently bounded and
// re-issued on every date-range change, so no caching or pagination.
const (
	patternRowLimit  = 1000
	activityRowLimit = 20
	topCostLimit     = 10
)

// Store issues read-only, date-bounded queries against the precomputed
// analytic views. All anomaly scoring, cost attribution and classification
// happen upstream in the views themselves.
type Store struct {
	db     *sql.DB
	schema string
}

// Open opens the warehouse connection. schema is the qualified prefix for
// the VW_* views and may be empty when the DSN already scopes them.
func Open(dsn, schema string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dsn+"?_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	return &Store{db: db, schema: schema}, nil
}

// NewStore wraps an existing connection; used by tests and report generation.
func NewStore(db *sql.DB, schema string) *Store {
	return &Store{db: db, schema: schema}
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) view(name string) string {
	if s.schema == "" {
		return name
	}
	return s.schema + "." + name
}

func (s *Store) countWhere(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// HomeMetrics computes the executive-summary scalars for the range. Each
// failing scalar degrades to zero rather than aborting the others.
func (s *Store) HomeMetrics(ctx context.Context, r DateRange) (HomeMetrics, error) {
	var m HomeMetrics
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	n, err := s.countWhere(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE ANOMALY_DATE BETWEEN ? AND ?", s.view("VW_ANOMALY_ATTRIBUTION")),
		r.StartISO(), r.EndISO())
	keep(err)
	m.AnomalyCount = n

	n, err = s.countWhere(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE PRIORITY = 'High Priority' AND EVENT_DATE BETWEEN ? AND ?", s.view("VW_CONTEXTUAL_RECOMMENDATIONS")),
		r.StartISO(), r.EndISO())
	keep(err)
	m.HighPriorityCount = n

	cost, err := s.totalCostUSD(ctx, r)
	keep(err)
	m.TotalCostUSD = cost

	n, err = s.countWhere(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE SECURITY_RISK_LEVEL NOT IN ('Low Risk') AND LOGIN_DATE BETWEEN ? AND ?", s.view("VW_SECURITY_COMPLIANCE")),
		r.StartISO(), r.EndISO())
	keep(err)
	m.SecurityIssues = n

	return m, firstErr
}

// Compute cost is estimated at $2/credit, matching the dashboard metric.
func (s *Store) totalCostUSD(ctx context.Context, r DateRange) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT SUM(TOTAL_DAILY_CREDITS * 2) FROM %s WHERE COST_DATE BETWEEN ? AND ?", s.view("VW_COST_ATTRIBUTION")),
		r.StartISO(), r.EndISO()).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// TopCostContributors returns the heaviest credit consumers in the range.
func (s *Store) TopCostContributors(ctx context.Context, r DateRange) ([]CostContributor, error) {
	q := fmt.Sprintf(`SELECT USER_NAME, ROLE_NAME,
			SUM(TOTAL_DAILY_CREDITS) AS TOTAL_CREDITS,
			SUM(DAILY_QUERY_COUNT) AS TOTAL_QUERIES
		FROM %s
		WHERE COST_DATE BETWEEN ? AND ?
		GROUP BY USER_NAME, ROLE_NAME
		ORDER BY TOTAL_CREDITS DESC
		LIMIT %d`, s.view("VW_COST_ATTRIBUTION"), topCostLimit)
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("top cost contributors: %w", err)
	}
	defer rows.Close()

	var out []CostContributor
	for rows.Next() {
		var c CostContributor
		if err := rows.Scan(&c.UserName, &c.RoleName, &c.Credits, &c.Queries); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AnomalyAttribution returns anomaly contributors, most recent and heaviest first.
func (s *Store) AnomalyAttribution(ctx context.Context, r DateRange) ([]AnomalyRow, error) {
	q := fmt.Sprintf(`SELECT ANOMALY_DATE, USER_NAME, ROLE_NAME, WAREHOUSE_NAME,
			QUERY_COUNT, EXECUTION_TIME_CONTRIBUTION_PCT, RISK_LEVEL,
			BEHAVIOR_PATTERN, RECOMMENDED_ACTION
		FROM %s
		WHERE ANOMALY_DATE BETWEEN ? AND ?
		ORDER BY ANOMALY_DATE DESC, EXECUTION_TIME_CONTRIBUTION_PCT DESC`, s.view("VW_ANOMALY_ATTRIBUTION"))
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("anomaly attribution: %w", err)
	}
	defer rows.Close()

	var out []AnomalyRow
	for rows.Next() {
		var a AnomalyRow
		if err := rows.Scan(&a.AnomalyDate, &a.UserName, &a.RoleName, &a.WarehouseName,
			&a.QueryCount, &a.ContributionPct, &a.RiskLevel, &a.BehaviorPattern, &a.RecommendedAction); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CostAttribution returns per-user/day cost rows, most recent and costliest first.
func (s *Store) CostAttribution(ctx context.Context, r DateRange) ([]CostRow, error) {
	q := fmt.Sprintf(`SELECT COST_DATE, USER_NAME, ROLE_NAME, WAREHOUSE_NAME,
			TOTAL_DAILY_CREDITS, DAILY_QUERY_COUNT, AVG_QUERY_EXECUTION_TIME
		FROM %s
		WHERE COST_DATE BETWEEN ? AND ?
		ORDER BY COST_DATE DESC, TOTAL_DAILY_CREDITS DESC`, s.view("VW_COST_ATTRIBUTION"))
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("cost attribution: %w", err)
	}
	defer rows.Close()

	var out []CostRow
	for rows.Next() {
		var c CostRow
		if err := rows.Scan(&c.CostDate, &c.UserName, &c.RoleName, &c.WarehouseName,
			&c.Credits, &c.QueryCount, &c.AvgExecTime); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// BehavioralPatterns returns pattern observations ordered by deviation magnitude.
func (s *Store) BehavioralPatterns(ctx context.Context, r DateRange) ([]PatternRow, error) {
	q := fmt.Sprintf(`SELECT ACTIVITY_DATE, USER_NAME, ROLE_NAME, ACTIVITY_HOUR,
			QUERY_COUNT, QUERY_DEVIATION_SCORE, BEHAVIOR_CLASSIFICATION,
			PATTERN_TYPE, TIME_CLASSIFICATION, RISK_LEVEL, RECOMMENDED_ACTION
		FROM %s
		WHERE ACTIVITY_DATE BETWEEN ? AND ?
		ORDER BY ACTIVITY_DATE DESC, ABS(QUERY_DEVIATION_SCORE) DESC
		LIMIT %d`, s.view("VW_BEHAVIORAL_PATTERNS"), patternRowLimit)
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("behavioral patterns: %w", err)
	}
	defer rows.Close()

	var out []PatternRow
	for rows.Next() {
		var p PatternRow
		if err := rows.Scan(&p.ActivityDate, &p.UserName, &p.RoleName, &p.ActivityHour,
			&p.QueryCount, &p.DeviationScore, &p.Classification, &p.PatternType,
			&p.TimeClass, &p.RiskLevel, &p.RecommendedAction); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SecurityCompliance returns per-user/day security posture rows.
func (s *Store) SecurityCompliance(ctx context.Context, r DateRange) ([]SecurityRow, error) {
	q := fmt.Sprintf(`SELECT LOGIN_DATE, USER_NAME, FAILED_LOGINS,
			MFA_COMPLIANCE_STATUS, PASSWORD_ONLY_LOGINS, SECURITY_RISK_LEVEL
		FROM %s
		WHERE LOGIN_DATE BETWEEN ? AND ?
		ORDER BY LOGIN_DATE DESC, FAILED_LOGINS DESC`, s.view("VW_SECURITY_COMPLIANCE"))
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("security compliance: %w", err)
	}
	defer rows.Close()

	var out []SecurityRow
	for rows.Next() {
		var sec SecurityRow
		if err := rows.Scan(&sec.LoginDate, &sec.UserName, &sec.FailedLogins,
			&sec.MFAStatus, &sec.PasswordOnlyLogins, &sec.RiskLevel); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// Recommendations returns contextual recommendations ordered by priority then recency.
func (s *Store) Recommendations(ctx context.Context, r DateRange) ([]RecommendationRow, error) {
	q := fmt.Sprintf(`SELECT EVENT_DATE, RECOMMENDATION_TYPE, USER_NAME, ROLE_NAME,
			PRIORITY, ISSUE_DESCRIPTION, RECOMMENDED_ACTIONS
		FROM %s
		WHERE EVENT_DATE BETWEEN ? AND ?
		ORDER BY
			CASE PRIORITY
				WHEN 'High Priority' THEN 1
				WHEN 'Medium Priority' THEN 2
				ELSE 3
			END,
			EVENT_DATE DESC`, s.view("VW_CONTEXTUAL_RECOMMENDATIONS"))
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

// HighPriorityRecommendations returns the most recent high-priority items.
func (s *Store) HighPriorityRecommendations(ctx context.Context, r DateRange, limit int) ([]RecommendationRow, error) {
	q := fmt.Sprintf(`SELECT EVENT_DATE, RECOMMENDATION_TYPE, USER_NAME, ROLE_NAME,
			PRIORITY, ISSUE_DESCRIPTION, RECOMMENDED_ACTIONS
		FROM %s
		WHERE PRIORITY = 'High Priority' AND EVENT_DATE BETWEEN ? AND ?
		ORDER BY EVENT_DATE DESC
		LIMIT %d`, s.view("VW_CONTEXTUAL_RECOMMENDATIONS"), limit)
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("high priority recommendations: %w", err)
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

func scanRecommendations(rows *sql.Rows) ([]RecommendationRow, error) {
	var out []RecommendationRow
	for rows.Next() {
		var rec RecommendationRow
		if err := rows.Scan(&rec.EventDate, &rec.RecommendationType, &rec.UserName,
			&rec.RoleName, &rec.Priority, &rec.IssueDescription, &rec.RecommendedActions); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DataConsumption returns the heaviest-scanning roles.
func (s *Store) DataConsumption(ctx context.Context, r DateRange) ([]ConsumptionRow, error) {
	q := fmt.Sprintf(`SELECT USAGE_DATE, ROLE_NAME, TOTAL_QUERIES, GB_DATA_SCANNED,
			ACTIVE_USERS, DATABASES_ACCESSED
		FROM %s
		WHERE USAGE_DATE BETWEEN ? AND ?
		ORDER BY GB_DATA_SCANNED DESC
		LIMIT %d`, s.view("VW_DATA_CONSUMPTION_BY_ROLE"), activityRowLimit)
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("data consumption: %w", err)
	}
	defer rows.Close()

	var out []ConsumptionRow
	for rows.Next() {
		var c ConsumptionRow
		if err := rows.Scan(&c.UsageDate, &c.RoleName, &c.TotalQueries, &c.GBScanned,
			&c.ActiveUsers, &c.DatabasesAccessed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// WriteActivity returns the heaviest-writing roles.
func (s *Store) WriteActivity(ctx context.Context, r DateRange) ([]WriteActivityRow, error) {
	q := fmt.Sprintf(`SELECT ACTIVITY_DATE, ROLE_NAME, TOTAL_WRITE_QUERIES,
			TOTAL_ROWS_INSERTED, TOTAL_ROWS_UPDATED, GB_WRITTEN_DAILY
		FROM %s
		WHERE ACTIVITY_DATE BETWEEN ? AND ?
		ORDER BY TOTAL_ROWS_INSERTED DESC
		LIMIT %d`, s.view("VW_DATA_WRITE_ACTIVITY_BY_ROLE"), activityRowLimit)
	rows, err := s.db.QueryContext(ctx, q, r.StartISO(), r.EndISO())
	if err != nil {
		return nil, fmt.Errorf("write activity: %w", err)
	}
	defer rows.Close()

	var out []WriteActivityRow
	for rows.Next() {
		var w WriteActivityRow
		if err := rows.Scan(&w.ActivityDate, &w.RoleName, &w.TotalWriteQueries,
			&w.RowsInserted, &w.RowsUpdated, &w.GBWritten); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
