package reporting

import (
	"fmt"
	"strings"
)

// RenderSummaryCSV renders segment summary rows as CSV string.
func RenderSummaryCSV(rows []SummaryRow) string {
	var sb strings.Builder
	sb.WriteString("run_id,strategy_id,status,trades,win_rate,net_r,total_score,grade\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%.6f,%.6f,%.6f,%s\n",
			r.RunID, r.StrategyID, r.Status, r.Trades, r.WinRate, r.NetR, r.Total, r.Grade))
	}
	return sb.String()
}
