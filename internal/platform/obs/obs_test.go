package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestRequestIDRoundTrip(t *testing.T) {
	require.Empty(t, RequestID(context.Background()))
	require.Equal(t, "r-1", RequestID(WithRequestID(context.Background(), "r-1")))
}

func TestTimeLogsFailure(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithRequestID(context.Background(), "r-2")

	func() (err error) {
		defer Time(ctx, "unit.op")(&err)
		return errors.New("boom")
	}()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "unit.op", entry["op"])
	require.Equal(t, "r-2", entry["req_id"])
	require.Equal(t, "boom", entry["error"])
}

func TestTimeLogsSuccessAtDebug(t *testing.T) {
	buf := captureLogs(t)

	func() (err error) {
		defer Time(context.Background(), "unit.ok")(&err)
		return nil
	}()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "operation done", entry["message"])
}

func TestSetupLoggerLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	SetupLogger("production", "warn")
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetupLogger("production", "nonsense")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
