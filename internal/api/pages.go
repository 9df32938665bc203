package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/comigor/snowpatrol/internal/logger"
	"github.com/comigor/snowpatrol/internal/warehouse"
)

// Dashboard page identifiers and their chat context labels.
var pageLabels = map[string]string{
	"home":            "Home Dashboard",
	"anomalies":       "Anomaly Analysis",
	"costs":           "Cost Analysis",
	"patterns":        "Behavioral Patterns",
	"security":        "Security Compliance",
	"recommendations": "Recommendations",
	"activity":        "Data Activity",
}

type rangePayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type pageResponse struct {
	Page    string         `json:"page"`
	Range   rangePayload   `json:"range"`
	Metrics map[string]any `json:"metrics"`
	Summary string         `json:"summary"`
	Rows    any            `json:"rows"`
	// Empty-state message when the section's query failed; other sections
	// are unaffected.
	Error string `json:"error,omitempty"`
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if _, ok := pageLabels[page]; !ok {
		Error(w, http.StatusNotFound, "validation", fmt.Sprintf("unknown page %q", page))
		return
	}
	dr, err := h.dateRange(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	resp := pageResponse{
		Page:  page,
		Range: rangePayload{Start: dr.StartISO(), End: dr.EndISO(), Days: dr.Days()},
	}

	var summary warehouse.Summary
	var rows any
	switch page {
	case "home":
		var m warehouse.HomeMetrics
		m, err = h.store.HomeMetrics(r.Context(), dr)
		summary = warehouse.HomeSummary(m)
		if err == nil {
			var recs []warehouse.RecommendationRow
			var top []warehouse.CostContributor
			if recs, err = h.store.HighPriorityRecommendations(r.Context(), dr, 5); err == nil {
				if top, err = h.store.TopCostContributors(r.Context(), dr); err == nil {
					rows = map[string]any{"recent_recommendations": recs, "top_cost_contributors": top}
				}
			}
		}
	case "anomalies":
		var list []warehouse.AnomalyRow
		list, err = h.store.AnomalyAttribution(r.Context(), dr)
		list = filterAnomalies(list, queryList(r, "risk_level"))
		summary = warehouse.AnomalySummary(list)
		rows = list
	case "costs":
		var list []warehouse.CostRow
		list, err = h.store.CostAttribution(r.Context(), dr)
		summary = warehouse.CostSummary(list)
		rows = list
	case "patterns":
		var list []warehouse.PatternRow
		list, err = h.store.BehavioralPatterns(r.Context(), dr)
		list = filterPatterns(list, queryList(r, "classification"))
		summary = warehouse.PatternSummary(list)
		rows = list
	case "security":
		var list []warehouse.SecurityRow
		list, err = h.store.SecurityCompliance(r.Context(), dr)
		summary = warehouse.SecuritySummary(list)
		rows = list
	case "recommendations":
		var list []warehouse.RecommendationRow
		list, err = h.store.Recommendations(r.Context(), dr)
		list = filterRecommendations(list, queryList(r, "priority"))
		summary = warehouse.RecommendationSummary(list)
		rows = list
	case "activity":
		var consumption []warehouse.ConsumptionRow
		var writes []warehouse.WriteActivityRow
		consumption, err = h.store.DataConsumption(r.Context(), dr)
		if err == nil {
			writes, err = h.store.WriteActivity(r.Context(), dr)
		}
		summary = warehouse.ActivitySummary(consumption, writes)
		rows = map[string]any{"consumption": consumption, "writes": writes}
	}

	if err != nil {
		// Section degrades to an empty state; the session stays alive.
		logger.L.Warn("page query failed", "page", page, "error", err)
		resp.Error = "no data available for the selected period"
	}
	resp.Metrics = summary.Metrics
	resp.Summary = summary.Text
	resp.Rows = rows
	JSON(w, http.StatusOK, resp)
}

// pageSummary recomputes the page's aggregates for chat context injection.
func (h *Handler) pageSummary(ctx context.Context, page string, dr warehouse.DateRange) (string, warehouse.Summary, error) {
	label, ok := pageLabels[page]
	if !ok {
		return "", warehouse.Summary{}, fmt.Errorf("unknown page %q", page)
	}

	var summary warehouse.Summary
	switch page {
	case "home":
		m, err := h.store.HomeMetrics(ctx, dr)
		if err != nil {
			logger.L.Warn("summary query failed", "page", page, "error", err)
		}
		summary = warehouse.HomeSummary(m)
	case "anomalies":
		rows, _ := h.store.AnomalyAttribution(ctx, dr)
		summary = warehouse.AnomalySummary(rows)
	case "costs":
		rows, _ := h.store.CostAttribution(ctx, dr)
		summary = warehouse.CostSummary(rows)
	case "patterns":
		rows, _ := h.store.BehavioralPatterns(ctx, dr)
		summary = warehouse.PatternSummary(rows)
	case "security":
		rows, _ := h.store.SecurityCompliance(ctx, dr)
		summary = warehouse.SecuritySummary(rows)
	case "recommendations":
		rows, _ := h.store.Recommendations(ctx, dr)
		summary = warehouse.RecommendationSummary(rows)
	case "activity":
		consumption, _ := h.store.DataConsumption(ctx, dr)
		writes, _ := h.store.WriteActivity(ctx, dr)
		summary = warehouse.ActivitySummary(consumption, writes)
	}
	return label, summary, nil
}

func (h *Handler) handleAnomalyExport(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	rows, err := h.store.AnomalyAttribution(r.Context(), dr)
	if err != nil {
		Error(w, http.StatusInternalServerError, "query", "anomaly export failed")
		return
	}
	rows = filterAnomalies(rows, queryList(r, "risk_level"))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="anomaly_attribution.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ANOMALY_DATE", "USER_NAME", "ROLE_NAME", "WAREHOUSE_NAME",
		"QUERY_COUNT", "EXECUTION_TIME_CONTRIBUTION_PCT", "RISK_LEVEL",
		"BEHAVIOR_PATTERN", "RECOMMENDED_ACTION"})
	for _, a := range rows {
		_ = cw.Write([]string{a.AnomalyDate, a.UserName, a.RoleName, a.WarehouseName,
			strconv.FormatInt(a.QueryCount, 10),
			strconv.FormatFloat(a.ContributionPct, 'f', -1, 64),
			a.RiskLevel, a.BehaviorPattern, a.RecommendedAction})
	}
	cw.Flush()
}

// queryList reads a comma-separated filter parameter; nil means no filter.
func queryList(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func filterAnomalies(rows []warehouse.AnomalyRow, riskLevels []string) []warehouse.AnomalyRow {
	if riskLevels == nil {
		return rows
	}
	var out []warehouse.AnomalyRow
	for _, r := range rows {
		if slices.Contains(riskLevels, r.RiskLevel) {
			out = append(out, r)
		}
	}
	return out
}

func filterPatterns(rows []warehouse.PatternRow, classifications []string) []warehouse.PatternRow {
	if classifications == nil {
		return rows
	}
	var out []warehouse.PatternRow
	for _, r := range rows {
		if slices.Contains(classifications, r.Classification) {
			out = append(out, r)
		}
	}
	return out
}

func filterRecommendations(rows []warehouse.RecommendationRow, priorities []string) []warehouse.RecommendationRow {
	if priorities == nil {
		return rows
	}
	var out []warehouse.RecommendationRow
	for _, r := range rows {
		if slices.Contains(priorities, r.Priority) {
			out = append(out, r)
		}
	}
	return out
}
