package commands

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"
	"wcprobe/internal/store"
	"wcprobe/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyDb     *string
	historyLimit  *int
	historyTarget *string
)

func init() {
	historyDb = historyCmd.Flags().String("db", "", "The database to read from (defaults to the configured database).")
	historyLimit = historyCmd.Flags().Int("limit", 20, "The maximum number of probes to list.")
	historyTarget = historyCmd.Flags().String("target", "", "Only show the latest probe of this storefront.")
	rootCmd.AddCommand(historyCmd)
}

// loadHistory returns the latest probe of `target` when it is set, the `limit` most
// recent probes otherwise.
func loadHistory(ctx context.Context, qry *store.Queries, target string, limit int) ([]store.Probe, error) {
	if target == "" {
		return qry.ListProbes(ctx, limit)
	}
	latest, err := qry.LatestForTarget(ctx, target)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []store.Probe{latest}, nil
}

func renderHistory(out io.Writer, probes []store.Probe, location *time.Location) {
	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Target", "Probed at", "Captcha", "Product ids", "Payment methods"})
	for _, p := range probes {
		probedAt := p.ProbedAt.In(location).Format(time.DateTime)
		if p.BadSite {
			t.AppendRow(table.Row{p.ID, p.Target, probedAt, "Bad site", "", ""})
			continue
		}
		payment := "checkout not reached"
		if p.CheckoutReached {
			payment = joinOrDash(p.PaymentMethods)
		}
		t.AppendRow(table.Row{
			p.ID,
			p.Target,
			probedAt,
			yesNo(p.Captcha),
			joinOrDash(p.ProductIDs),
			payment,
		})
	}
	t.Render()
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path/to/probes.db>] [--limit <n>] [--target <url>]",
	Short: "Lists recorded probes, most recent first.",
	Run: func(cmd *cobra.Command, args []string) {
		db, qry := openStore(cfg.dbPath(*historyDb))
		defer db.Close()

		probes, err := loadHistory(cmd.Context(), qry, *historyTarget, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list probes", err)
		}
		renderHistory(cmd.OutOrStdout(), probes, clock().Location())
	},
}
