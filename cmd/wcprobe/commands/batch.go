package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"wcprobe/internal/probe"
	"wcprobe/internal/store"
	"wcprobe/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	batchDb          *string
	batchRecord      *bool
	batchConcurrency *int
)

func init() {
	batchDb = batchCmd.Flags().String("db", "", "The database to record results to (defaults to the configured database).")
	batchRecord = batchCmd.Flags().Bool("record", false, "Record results to the database.")
	batchConcurrency = batchCmd.Flags().Int("concurrency", 0, "How many storefronts to probe at once (defaults to the configured concurrency).")
	rootCmd.AddCommand(batchCmd)
}

type batchLine struct {
	Target string `json:"target"`
	Result any    `json:"result"`
}

// readTargets reads one url per line, blank lines and lines starting with # are skipped.
func readTargets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	return targets, scanner.Err()
}

var batchCmd = &cobra.Command{
	Use:   "batch <file> [--concurrency <n>] [--record] [--db <path/to/probes.db>]",
	Short: "Probes every storefront listed in a file, printing one JSON line per storefront.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		targets, err := readTargets(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read targets", err)
		}

		var qry *store.Queries
		if *batchRecord || *batchDb != "" {
			db, q := openStore(cfg.dbPath(*batchDb))
			defer db.Close()
			qry = q
		}
		now := clock()

		concurrency := *batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Concurrency
		}

		slog.Info("probing storefronts", "count", len(targets), "concurrency", concurrency)
		encoder := json.NewEncoder(cmd.OutOrStdout())
		probe.RunBatch(
			cmd.Context(),
			cfg.newProber(tel, dumpTo),
			targets,
			concurrency,
			func(target string, result probe.Result, err error) {
				if qry != nil {
					row, ok := store.FromResult(target, now.Now(), result, err)
					if ok {
						_, storeErr := qry.InsertProbe(cmd.Context(), row)
						if storeErr != nil {
							slog.Warn("failed to record probe", "target", target, "err", storeErr)
						}
					}
				}

				encodeErr := encoder.Encode(batchLine{
					Target: target,
					Result: probe.Report(result, err),
				})
				if encodeErr != nil {
					fmt.Fprintln(os.Stderr, encodeErr)
				}
			},
		)
	},
}
