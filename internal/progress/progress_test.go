package progress

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/scm/internal/migration"
)

var (
	_ migration.ProgressSink = (*Bar)(nil)
	_ migration.ProgressSink = (*Log)(nil)
)

func TestLog_CountsAdvances(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := NewLog(2, logger)

	sink.Advance("20230101000000-init")
	sink.Advance("20230102000000-add-index")
	sink.Finish()

	out := buf.String()
	assert.Contains(t, out, "migration=20230101000000-init progress=1/2")
	assert.Contains(t, out, "migration=20230102000000-add-index progress=2/2")
	assert.Contains(t, out, "applied=2")
}

func TestBar_WritesLabelAndDone(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(1, &buf)

	bar.Advance("20230101000000-init")
	bar.Finish()

	out := buf.String()
	assert.Contains(t, out, "Applied migration 20230101000000-init")
	assert.Contains(t, out, "Done in")
}

func TestBanner_ContainsEnvironment(t *testing.T) {
	assert.Contains(t, Banner("dev", "localhost"), " dev@localhost ")
}

func TestInteractive_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.False(t, Interactive(f))
	assert.False(t, Interactive(nil))
}

func TestLog_DefaultsLogger(t *testing.T) {
	sink := NewLog(0, nil)
	require.NotNil(t, sink.logger)
	sink.Finish()
}
