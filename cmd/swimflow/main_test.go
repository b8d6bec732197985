package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adwikanair2008-hue/swim-flow/internal/config"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

const backupFixture = `{
  "profile": {"name": "Ada", "age": 29, "gender": "Female", "swimmingLevel": "Competitive",
              "isOnboarded": true, "weight": 70, "height": 175},
  "sessions": [
    {"id": "s2", "date": "2025-06-10", "stroke": "Freestyle", "distance": 1500, "time": 1650, "feeling": "Good", "notes": ""},
    {"id": "s1", "date": "2025-06-03", "stroke": "Backstroke", "distance": 1000, "time": 1300, "feeling": "Tired", "notes": "windy"}
  ],
  "chatHistory": [],
  "activeTab": "progress"
}`

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfgPath := filepath.Join(dir, "swimflow.yaml")
	cfg := "storage:\n  backend: file\n  data_dir: " + dataDir + "\n  slot: swimflow_cli_test\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportExportStatsWipe(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)
	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte(backupFixture), 0o644))

	out, err := runCmd(t, "--config", cfgPath, "import", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 sessions for Ada")
	assert.FileExists(t, filepath.Join(dir, "data", "swimflow_cli_test.json"))

	exported := filepath.Join(dir, "out.json")
	out, err = runCmd(t, "--config", cfgPath, "export", "--out", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 sessions")
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exportedAt"`)
	assert.Contains(t, string(data), `"activeTab": "progress"`)

	out, err = runCmd(t, "--config", cfgPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Recent swims")
	assert.Contains(t, out, "2.5km")

	_, err = runCmd(t, "--config", cfgPath, "wipe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err = runCmd(t, "--config", cfgPath, "wipe", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "all data deleted")
	assert.NoFileExists(t, filepath.Join(dir, "data", "swimflow_cli_test.json"))

	_, err = runCmd(t, "--config", cfgPath, "export")
	assert.ErrorIs(t, err, errNoProfile)
}

func TestImportRejectsInvalidBackup(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)
	backup := filepath.Join(dir, "backup.json")
	require.NoError(t, os.WriteFile(backup, []byte(`{"profile": {"name": "Ada"}}`), 0o644))

	_, err := runCmd(t, "--config", cfgPath, "import", backup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing sessions")
	assert.NoFileExists(t, filepath.Join(dir, "data", "swimflow_cli_test.json"))
}

func TestOpenSlot(t *testing.T) {
	cfg := config.Default().Storage

	_, ok := openSlot(cfg, true).(*store.MemorySlot)
	assert.True(t, ok, "ephemeral uses memory")

	cfg.Backend = config.BackendFile
	cfg.DataDir = t.TempDir()
	slot := openSlot(cfg, false)
	_, ok = slot.(*store.FileSlot)
	assert.True(t, ok)
	require.NoError(t, slot.Close())

	cfg.Backend = config.BackendSQLite
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "missing", "dir", "swimflow.db")
	slot = openSlot(cfg, false)
	_, ok = slot.(*store.MemorySlot)
	assert.True(t, ok, "unusable database falls back to memory")
}

func TestLoadSnapshotIgnoresCorruptData(t *testing.T) {
	slot := store.NewMemorySlot(0)
	require.NoError(t, slot.Put(context.Background(), "swimflow_data", []byte(`not json`)))

	snap := loadSnapshot(context.Background(), store.NewSnapshotStore(slot, "swimflow_data"))
	assert.Nil(t, snap)
}

func TestRenderReport(t *testing.T) {
	snap := store.EmptySnapshot()
	snap.Profile = &store.Profile{Name: "Ada", SwimmingLevel: store.LevelElite, Weight: 70, Height: 175, IsOnboarded: true}

	empty := renderReport(snap, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))
	assert.Contains(t, empty, "No swims logged yet")
	assert.Contains(t, empty, "22.9 (Healthy)")

	snap.Sessions = []store.Session{
		{ID: "b", Date: store.NewDate(2025, 6, 10), Stroke: store.StrokeFreestyle, Distance: 1000, Time: 1200, Feeling: store.FeelingGood},
		{ID: "a", Date: store.NewDate(2025, 6, 2), Stroke: store.StrokeButterfly, Distance: 0, Time: 60, Feeling: store.FeelingTired},
	}
	report := renderReport(snap, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))
	assert.Contains(t, report, "2:00/100m")
	assert.Contains(t, report, "--:--/100m")
	assert.Contains(t, report, "[Exceeded]")
	assert.Contains(t, report, "Weekly volume")
}
