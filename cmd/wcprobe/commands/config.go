package commands

import (
	"database/sql"
	"time"
	"wcprobe/internal/components/chrono"
	"wcprobe/internal/components/telemetry"
	"wcprobe/internal/probe"
	"wcprobe/internal/session"
	"wcprobe/internal/store"
	"wcprobe/lib/serviceutil"
	libtelemetry "wcprobe/lib/telemetry"
)

type SessionConfig struct {
	TimeoutSeconds    int     `json:"timeout_seconds"`
	UserAgent         string  `json:"user_agent"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
}

type DatabaseConfig struct {
	File string `json:"file"`
}

// WatchConfig lists storefronts `serve` probes again on a cron schedule.
type WatchConfig struct {
	Schedule string   `json:"schedule"`
	Targets  []string `json:"targets"`
}

type Config struct {
	Session        SessionConfig       `json:"session"`
	CandidatePaths []string            `json:"candidate_paths"`
	Database       DatabaseConfig      `json:"database"`
	Port           int                 `json:"port"`
	Concurrency    int                 `json:"concurrency"`
	Timezone       string              `json:"timezone"`
	Watch          WatchConfig         `json:"watch"`
	Telemetry      libtelemetry.Config `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TimeoutSeconds: int(session.DefaultTimeout / time.Second),
			UserAgent:      session.DefaultUserAgent,
		},
		CandidatePaths: probe.DefaultCandidatePaths,
		Database: DatabaseConfig{
			File: "wcprobe.db",
		},
		Port:        8000,
		Concurrency: 1,
	}
}

func (c Config) sessionOptions(dump telemetry.MessageOutput) session.Options {
	return session.Options{
		Timeout:           time.Duration(c.Session.TimeoutSeconds) * time.Second,
		UserAgent:         c.Session.UserAgent,
		RequestsPerSecond: c.Session.RequestsPerSecond,
		CloudflareBypass:  c.Session.CloudflareBypass,
		Dump:              dump,
	}
}

func (c Config) newProber(tel telemetry.API, dump telemetry.MessageOutput) *probe.Prober {
	return probe.NewProber(
		session.NewFactory(c.sessionOptions(dump), tel),
		tel,
		probe.WithCandidatePaths(c.CandidatePaths),
	)
}

// dbPath prefers the --db flag over the configured database file.
func (c Config) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	return c.Database.File
}

func openStore(path string) (*sql.DB, *store.Queries) {
	db, err := store.Open(path)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	return db, store.New(db)
}

func clock() chrono.API {
	impl, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		serviceutil.Fatal("failed to load timezone", err)
	}
	return impl
}
