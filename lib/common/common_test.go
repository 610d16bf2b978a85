package common

import (
	"bytes"
	"sync"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("memory", logger.WARNING, &buf)
	l.out.SetFlags(0)

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warningf("shown %d", 3)
	l.Errorf("shown %d", 4)

	assert.Equal(t, "WARN  | memory     | shown 3\nERROR | memory     | shown 4\n", buf.String())

	l.SetLevel(logger.DEBUG)
	buf.Reset()
	l.Debugf("now shown")
	assert.Contains(t, buf.String(), "DEBUG | memory")

	buf.Reset()
	assert.PanicsWithValue(t, "boom 1", func() { l.Panicf("boom %d", 1) })
	assert.Equal(t, "PANIC | memory     | boom 1\n", buf.String())

	// below CRITICAL nothing is written, but Panicf still panics
	l.SetLevel(logger.LogLevel(-1))
	buf.Reset()
	assert.Panics(t, func() { l.Panicf("quiet") })
	assert.Empty(t, buf.String())
}

func TestLoggerSetLevelConcurrent(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("perf", logger.ERROR, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				l.SetLevel(logger.LogLevel(n % 5))
				_ = l.enabled(logger.LogLevel(i))
			}
		}(i)
	}
	wg.Wait()

	l.SetLevel(logger.DEBUG)
	assert.True(t, l.enabled(logger.DEBUG))
}

func TestPerfConfig(t *testing.T) {
	c := PerfConfig{
		Instances: 2, Prefixes: 4, KeysPerPrefix: 100,
		KeyType: "uint32", ValueType: "vector", VectorDim: 8,
		Threads: 4, Skip: []string{"range"}, LogLevel: "info",
	}
	require.NoError(t, c.Validate())
	assert.True(t, c.ShouldSkip("range"))
	assert.False(t, c.ShouldSkip("get"))

	out := c.String()
	assert.Contains(t, out, "WORKLOAD")
	assert.Contains(t, out, "Entries Per Instance  : 400")
	assert.Contains(t, out, "Vector Dimension")

	bad := c
	bad.KeyType = "bool"
	assert.Error(t, bad.Validate())

	bad = c
	bad.Threads = 0
	assert.Error(t, bad.Validate())

	bad = c
	bad.VectorDim = 0
	assert.Error(t, bad.Validate())
}
