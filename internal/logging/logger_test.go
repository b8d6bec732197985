package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("chatty"))
}

func TestSetupWritesToFile(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	base := filepath.Join(t.TempDir(), "swimflow")
	closer := Setup(LoggerSetupParams{LogFileName: base, LogLevel: "info"})
	logrus.Info("lap complete")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "lap complete")
}
