package chrono

import (
	"testing"
	"time"
	"wcprobe/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardImpl(t *testing.T) {
	utc, err := NewStandardImpl("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, utc.Location())
	require.Equal(t, time.UTC, utc.Now().Location())

	_, err = NewStandardImpl("Not/AZone")
	require.Error(t, err)
}

func TestFixedImpl(t *testing.T) {
	instant := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fixed := FixedImpl{Instant: instant}
	require.Equal(t, instant, fixed.Now())
	require.Equal(t, time.UTC, fixed.Location())
}

func TestStandardCron(t *testing.T) {
	now, err := NewStandardImpl("")
	require.NoError(t, err)

	cron := NewStandardCron(now, &telemetry.RecorderAPI{})
	defer cron.Stop()

	require.Error(t, cron.Cron("not a schedule", func() {}))

	ran := make(chan struct{}, 1)
	err = cron.Cron("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job did not run")
	}
}
