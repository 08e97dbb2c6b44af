package commands

import (
	"context"
	"database/sql"
	"time"
	"wcprobe/internal/components/chrono"
	"wcprobe/internal/service"
	"wcprobe/internal/store"
	"wcprobe/lib/serviceutil"
	libtelemetry "wcprobe/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	servePort     *int
	serveNoRecord *bool
)

func init() {
	servePort = serveCmd.Flags().Int("port", 0, "The port to listen on (defaults to the configured port).")
	serveNoRecord = serveCmd.Flags().Bool("no-record", false, "Do not record probes to the database.")
	rootCmd.AddCommand(serveCmd)
}

// watch probes the configured targets again on every tick of the schedule.
func watch(ctx context.Context, cron chrono.CronAPI, svc service.Service, w WatchConfig) error {
	if w.Schedule == "" || len(w.Targets) == 0 {
		return nil
	}
	return cron.Cron(w.Schedule, func() {
		for _, target := range w.Targets {
			if ctx.Err() != nil {
				return
			}
			svc.ProbeAndRecord(ctx, target)
		}
		tel.ReportCount("serve.watch", int64(len(w.Targets)))
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>] [--no-record]",
	Short: "Serves probes over HTTP: GET /?check=<url>.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		var qry *store.Queries
		if !*serveNoRecord {
			var db *sql.DB
			db, qry = openStore(cfg.Database.File)
			defer db.Close()
		}

		now := clock()
		svc := service.NewService(cfg.newProber(tel, dumpTo), qry, now, tel)

		cron := chrono.NewStandardCron(now, tel)
		defer cron.Stop()
		err := watch(ctx, cron, svc, cfg.Watch)
		if err != nil {
			serviceutil.Fatal("failed to schedule watch", err)
		}

		libtelemetry.InstrumentPerfStats(ctx, time.Second*30)

		port := *servePort
		if port == 0 {
			port = cfg.Port
		}
		err = serviceutil.StartHttpServer(ctx, port, svc.Handler())
		if err != nil {
			serviceutil.Fatal("http server stopped", err)
		}
	},
}
