package agent

import (
	"fmt"

	"github.com/comigor/snowpatrol/internal/warehouse"
)

// BuildPrompt produces the outbound user message text: page label, selected
// date range with inclusive day count, the data summary verbatim, then the
// raw question. Pure formatting; the question is never truncated.
func BuildPrompt(question, pageLabel string, r warehouse.DateRange, dataSummary string) string {
	return fmt.Sprintf(`**Context**: You are viewing the %s dashboard page.
**Date Range**: %s

**Current Data Summary**:
%s

**User Question**: %s
`, pageLabel, r.Label(), dataSummary, question)
}
