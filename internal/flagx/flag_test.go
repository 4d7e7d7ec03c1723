package flagx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "-config", "-env"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"separate value", []string{"-c", "conf.json", "-a", ":5001"}, []string{"-c", "conf.json"}},
		{"equals form", []string{"-config=alt.json", "-n", "2024-25"}, []string{"-config=alt.json"}},
		{"order kept", []string{"-env", ".env", "-d", "postgres://db", "-c", "c.json"}, []string{"-env", ".env", "-c", "c.json"}},
		{"unknown and positional dropped", []string{"serve", "-x", "1", "-w=./dist", "tail"}, []string{}},
		{"dangling flag", []string{"-c"}, []string{"-c"}},
		{"next dash token is not a value", []string{"-c", "-env=.env"}, []string{"-c", "-env=.env"}},
		{"dash inside equals value", []string{"-config=-weird.json"}, []string{"-config=-weird.json"}},
		{"repeats kept", []string{"-c", "one.json", "-c", "two.json"}, []string{"-c", "one.json", "-c", "two.json"}},
		{"empty", []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FilterArgs(tt.args, allowed)); diff != "" {
				t.Fatalf("FilterArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigPath([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigPath([]string{"-config=/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigPath([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigPath([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})

	t.Run("other layers' flags do not interfere", func(t *testing.T) {
		assert.Equal(t, "cfg.json", ConfigPath([]string{"-a", ":5001", "-c", "cfg.json", "-env", ".env.local"}))
	})
}

func TestEnvFile(t *testing.T) {
	assert.Equal(t, ".env.local", EnvFile([]string{"-a", ":5001", "-env", ".env.local"}))
	assert.Empty(t, EnvFile([]string{"-c", "cfg.json"}))
}
