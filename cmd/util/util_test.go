package util

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
	assert.Equal(t, "", WrapString(""))

	long := strings.Repeat("x", Wrap+10)
	assert.Equal(t, long+"\nnext", WrapString(long+" next"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"get", "range"}, SplitList("get, ,range,"))
	assert.Nil(t, SplitList(""))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BLOCKFILE_KEYS_PER_PREFIX", "42")
	InitConfig()

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int("keys-per-prefix", 1, "")
	require.NoError(t, BindCommandFlags(cmd))

	assert.Equal(t, 42, viper.GetInt("keys-per-prefix"))
}
