package commands

import (
	"encoding/json"
	"fmt"
	"wcprobe/internal/probe"
	"wcprobe/internal/service"
	"wcprobe/internal/store"
	"wcprobe/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	probeDb     *string
	probeRecord *bool
	probeTable  *bool
)

func init() {
	probeDb = probeCmd.Flags().String("db", "", "The database to record the result to (defaults to the configured database).")
	probeRecord = probeCmd.Flags().Bool("record", false, "Record the result to the database.")
	probeTable = probeCmd.Flags().Bool("table", false, "Print the result as a table instead of JSON.")
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <url> [--record] [--db <path/to/probes.db>] [--table]",
	Short: "Probes a single storefront and prints what was found.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prober := cfg.newProber(tel, dumpTo)

		var qry *store.Queries
		if *probeRecord || *probeDb != "" {
			db, q := openStore(cfg.dbPath(*probeDb))
			defer db.Close()
			qry = q
		}
		svc := service.NewService(prober, qry, clock(), tel)

		result, err := svc.ProbeAndRecord(cmd.Context(), args[0])
		if *probeTable {
			renderResult(cmd.OutOrStdout(), result, err)
			return
		}

		out, encodeErr := json.Marshal(probe.Report(result, err))
		if encodeErr != nil {
			serviceutil.Fatal("failed to encode result", encodeErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	},
}
