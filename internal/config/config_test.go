package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"store": { "path": "/data/poses.json", "format": " JSON " },
		"quickSave": { "prefix": "QS" },
		"graylog": { "enabled": true, "address": "graylog:12201" }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", GetString("logLevel"))
	assert.Equal(t, StoreConfig{Path: "/data/poses.json", Format: "json"}, GetStoreConfig())
	assert.Equal(t, QuickSaveConfig{Prefix: "QS", TimeFormat: "2006-01-02 15:04"}, GetQuickSaveConfig())
	assert.Equal(t, GraylogConfig{Enabled: true, Address: "graylog:12201"}, GetGraylogConfig())
	assert.True(t, GetBool("graylog.enabled"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", GetString("logLevel"))
	assert.Equal(t, "", GetString("logsDir"))
	assert.Equal(t, StoreConfig{Path: "", Format: "xml"}, GetStoreConfig())
	assert.Equal(t, QuickSaveConfig{Prefix: "Quick Save", TimeFormat: "2006-01-02 15:04"}, GetQuickSaveConfig())
	assert.Equal(t, DisplayConfig{TimeFormat: "2006-01-02 15:04"}, GetDisplayConfig())
	assert.Equal(t, GraylogConfig{Enabled: false, Address: "localhost:12201"}, GetGraylogConfig())
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	require.Error(t, err)
	var notFound viper.ConfigFileNotFoundError
	assert.True(t, errors.As(err, &notFound), "got %T", errors.Unwrap(err))

	assert.Equal(t, "xml", GetStoreConfig().Format)
	assert.Equal(t, "Quick Save", GetQuickSaveConfig().Prefix)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"logLevel": `))
	assert.Error(t, err)
	assert.Equal(t, "info", GetString("logLevel"))
}

func TestLoad_StorePathFromEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv(StorePathEnv, "/env/poses.xml")

	require.NoError(t, Load(writeConfig(t, `{"store": {"path": "/file/poses.xml"}}`)))

	assert.Equal(t, "/env/poses.xml", GetStoreConfig().Path)
}

func TestResolveStorePath_Default(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()

	orig := userConfigDir
	t.Cleanup(func() { userConfigDir = orig })
	userConfigDir = func() (string, error) { return "/home/u/.config", nil }

	got, err := ResolveStorePath(".xml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/u/.config", "ViewVolt", "ViewVoltPositions.xml"), got)

	got, err = ResolveStorePath(".db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/u/.config", "ViewVolt", "ViewVoltPositions.db"), got)
}

func TestResolveStorePath_Configured(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("store.path", "/data/./poses.xml")

	got, err := ResolveStorePath(".json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/data/poses.xml"), got, "configured path is used as-is")
}

func TestResolveStorePath_NoUserDir(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()

	orig := userConfigDir
	t.Cleanup(func() { userConfigDir = orig })
	userConfigDir = func() (string, error) { return "", errors.New("$HOME is not defined") }

	_, err := ResolveStorePath(".xml")
	assert.Error(t, err)
}

func TestResolveLogsDir(t *testing.T) {
	t.Cleanup(viper.Reset)
	SetDefaults()

	store := filepath.Join("/home/u/.config", "ViewVolt", "ViewVoltPositions.xml")
	assert.Equal(t, filepath.Join("/home/u/.config", "ViewVolt", "logs"), ResolveLogsDir(store))

	viper.Set("logsDir", "/var/log/viewvolt")
	assert.Equal(t, "/var/log/viewvolt", ResolveLogsDir(store))
}
