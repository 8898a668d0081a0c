package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/aleph-monitor/internal/control"
	"github.com/vietddude/aleph-monitor/internal/core/domain"
)

var checkCmd = &cobra.Command{
	Use:       "check [sync|age|all]",
	Short:     "Run the health checks once and print the results",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"sync", "age", "all"},
	Run:       runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	which := "all"
	if len(args) == 1 {
		which = args[0]
	}

	cfg := loadConfig()
	app := control.NewMonitor(cfg, nil)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []checkRow
	if which == "sync" || which == "all" {
		status, err := app.Sync.NodeSyncStatus(ctx)
		rows = append(rows, syncRows(status, err)...)
	}
	if which == "age" || which == "all" {
		age, err := app.Age.MetricsAgeByNode(ctx)
		rows = append(rows, ageRows(age, err)...)
	}

	if !printRows(os.Stdout, rows) {
		os.Exit(1)
	}
}

type checkRow struct {
	check  string
	field  string
	value  string
	result string
	ok     bool
}

func syncRows(status domain.SyncStatus, err error) []checkRow {
	if err != nil {
		return []checkRow{errorRow("node_sync", err)}
	}
	result := verdict(status.Acceptable)
	return []checkRow{
		{"node_sync", "pending_messages", formatFloat(status.PendingMessages), result, status.Acceptable},
		{"node_sync", "pending_txs", formatFloat(status.PendingTxs), result, status.Acceptable},
		{"node_sync", "eth_height_remaining", formatFloat(status.EthHeightRemaining), result, status.Acceptable},
	}
}

func ageRows(age domain.MetricsAge, err error) []checkRow {
	if err != nil {
		return []checkRow{errorRow("metrics_age", err)}
	}
	result := verdict(age.Acceptable)
	return []checkRow{
		{"metrics_age", "scoring_node", formatFloat(age.ScoringNode) + "s", result, age.Acceptable},
		{"metrics_age", "reference_node", formatFloat(age.ReferenceNode) + "s", result, age.Acceptable},
	}
}

func errorRow(check string, err error) checkRow {
	return checkRow{check, string(domain.ClassifyError(err)), err.Error(), "ERROR", false}
}

func verdict(acceptable bool) string {
	if acceptable {
		return "OK"
	}
	return "FAIL"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// printRows writes the results as a table and reports whether every row
// passed.
func printRows(out io.Writer, rows []checkRow) bool {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tFIELD\tVALUE\tRESULT")
	fmt.Fprintln(w, "-----\t-----\t-----\t------")

	allOK := true
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.check, r.field, r.value, r.result)
		allOK = allOK && r.ok
	}
	w.Flush()
	return allOK
}
