package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"fetch", "-c", "conf.json", "--cui", "RO123"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"fetch", "--config=alt.json", "--days", "30"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags and positionals ignored",
			args:         []string{"fetch", "--cui", "RO1", "--pdf"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "next dash-starting token is not a value",
			args:         []string{"-c", "--pdf"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c"},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-c", "one.json", "--config", "two.json"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "one.json", "--config", "two.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", JsonConfigFlags([]string{"fetch", "-c", "/path/short.json"}))
	})

	t.Run("long --config with equals", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", JsonConfigFlags([]string{"--config=/path/long.json", "fetch"}))
	})

	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, JsonConfigFlags([]string{"fetch", "--cui", "RO1"}))
	})

	t.Run("last wins", func(t *testing.T) {
		assert.Equal(t, "/2.json", JsonConfigFlags([]string{"-c", "/1.json", "--config", "/2.json"}))
	})
}
