package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform pins the OS lookups for one test.
func fakePlatform(t *testing.T, goos string) {
	t.Helper()
	orig := platform
	platform.goos = goos
	platform.homeDir = func() (string, error) { return "/home/ada", nil }
	platform.userConfigDir = func() (string, error) { return "/Users/ada/Library/Application Support", nil }
	t.Cleanup(func() { platform = orig })
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		env        map[string]string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux without XDG",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "", "XDG_DATA_HOME": ""},
			wantConfig: "/home/ada/.config/fieldbook",
			wantData:   "/home/ada/.local/share/fieldbook",
		},
		{
			name:       "linux with XDG",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/xdg/config/fieldbook",
			wantData:   "/xdg/data/fieldbook",
		},
		{
			name:       "darwin ignores XDG",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/Users/ada/Library/Application Support/fieldbook",
			wantData:   "/Users/ada/Library/Application Support/fieldbook",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantConfig), got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantData), got)
		})
	}
}

func TestDefaultDirLookupErrors(t *testing.T) {
	errHome := errors.New("no home")

	fakePlatform(t, "linux")
	t.Setenv("XDG_CONFIG_HOME", "")
	platform.homeDir = func() (string, error) { return "", errHome }
	_, err := DefaultConfigDir()
	assert.ErrorIs(t, err, errHome)

	platform.goos = "windows"
	platform.userConfigDir = func() (string, error) { return "", errHome }
	_, err = DefaultDataDir()
	assert.ErrorIs(t, err, errHome)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins over env", "/flag/config", "/env/config", "/flag/config"},
		{"env when flag empty", "", "/env/config", "/env/config"},
		{"platform default last", "", "", "/home/ada/.config/fieldbook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux")
			t.Setenv("XDG_CONFIG_HOME", "")
			t.Setenv(EnvConfigDir, tt.env)

			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config.yaml wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env when flag and config empty", "", "", "/env/data", "/env/data"},
		{"platform default last", "", "", "", "/home/ada/.local/share/fieldbook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux")
			t.Setenv("XDG_DATA_HOME", "")
			t.Setenv(EnvDataDir, tt.env)

			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativeOverridesBecomeAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "relative/env")
	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "got %s", got)

	t.Setenv(EnvDataDir, "")
	got, err = ResolveDataDir("", "relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "got %s", got)
	assert.Equal(t, "config.yaml", filepath.Base(ConfigFile(got)))
}
