package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := &RecorderAPI{}
	scoped := NewScopedAPI("probe", NewScopedAPI("service", recorder))

	scoped.ReportBroken("prober.crawl", errors.New("boom"))
	scoped.ReportWarning("prober.fetch-home")
	scoped.ReportDebug("fetched")
	scoped.ReportCount("probes", 3)

	reports := recorder.Reports("")
	require.Len(t, reports, 4)
	require.Equal(t, Report{Kind: KindBroken, ID: "service: probe: prober.crawl", Params: []any{errors.New("boom")}}, reports[0])
	require.Equal(t, "service: probe: prober.fetch-home", reports[1].ID)
	require.Equal(t, KindDebug, reports[2].Kind)
	require.Equal(t, []any{int64(3)}, reports[3].Params)

	require.Len(t, recorder.Reports(KindWarning), 1)
}

func TestSlogAPI(t *testing.T) {
	buffer := &bytes.Buffer{}
	api := SlogAPI{Logger: slog.New(slog.NewTextHandler(buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	api.ReportWarning("session.get", errors.New("connection refused"), "https://shop.example")
	out := buffer.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "id=session.get")
	require.Contains(t, out, `params.0="connection refused"`)
	require.Contains(t, out, "params.1=https://shop.example")

	buffer.Reset()
	api.ReportCount("probes", 2)
	require.True(t, strings.Contains(buffer.String(), "n=2"))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("session-1-1", "GET / HTTP/1.1")
	contents, err := os.ReadFile(filepath.Join(dir, "session-1-1.txt"))
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1", string(contents))
}
