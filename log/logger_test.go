package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T, level logrus.Level) (*Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	lg := logrus.New()
	lg.SetOutput(&buf)
	lg.SetLevel(level)
	lg.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	return New(lg, nil), &buf
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	l, buf := newBufferedLogger(t, logrus.InfoLevel)

	l.Debugf("Client:do", "hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Infof("Client:do", "shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "category=\"Client:do\"")
	assert.False(t, l.DebugMode())
}

func TestLoggerCategoryFilter(t *testing.T) {
	t.Parallel()

	l, buf := newBufferedLogger(t, logrus.DebugLevel)
	require.NoError(t, l.SetCategoryFilter("^Poller"))

	l.Debugf("Client:do", "dropped")
	l.Debugf("Poller:poll", "kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")

	require.NoError(t, l.SetCategoryFilter(""))
	l.Debugf("Client:do", "no longer dropped")
	assert.Contains(t, buf.String(), "no longer dropped")

	assert.Error(t, l.SetCategoryFilter("("))
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	l := NewNullLogger()
	require.NoError(t, l.SetLevel("debug"))
	assert.True(t, l.DebugMode())
	l.Debugf("any", "goes nowhere")

	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Errorf("any", "nil receivers are ignored") })
	assert.False(t, nilLogger.DebugMode())
}
