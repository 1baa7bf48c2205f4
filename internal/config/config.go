package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// FileName is the configuration file looked up in the config directory.
	FileName = "viewvolt.cfg.json"

	// StorePathEnv overrides store.path.
	StorePathEnv = "VIEWVOLT_STORE_PATH"

	// AppDirName is the per-user folder holding the store.
	AppDirName = "ViewVolt"

	// StoreBaseName is the store file name without extension.
	StoreBaseName = "ViewVoltPositions"
)

// StoreConfig selects where and how poses are persisted.
type StoreConfig struct {
	Path   string `json:"path" mapstructure:"path"`
	Format string `json:"format" mapstructure:"format"`
}

// QuickSaveConfig controls quick-save naming.
type QuickSaveConfig struct {
	Prefix     string `json:"prefix" mapstructure:"prefix"`
	TimeFormat string `json:"timeFormat" mapstructure:"timeFormat"`
}

// DisplayConfig controls how list rows are rendered.
type DisplayConfig struct {
	TimeFormat string `json:"timeFormat" mapstructure:"timeFormat"`
}

// GraylogConfig holds the optional GELF sink settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// SetDefaults registers every default value. Load calls it; tests that skip
// the file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "")

	viper.SetDefault("store.path", "")
	viper.SetDefault("store.format", "xml")

	viper.SetDefault("quickSave.prefix", "Quick Save")
	viper.SetDefault("quickSave.timeFormat", "2006-01-02 15:04")

	viper.SetDefault("display.timeFormat", "2006-01-02 15:04")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Defaults stay in
// effect when the file cannot be read.
func Load(configDir string) error {
	SetDefaults()

	if err := viper.BindEnv("store.path", StorePathEnv); err != nil {
		return fmt.Errorf("error binding %s: %v", StorePathEnv, err)
	}

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStoreConfig returns the store settings with the format lower-cased.
func GetStoreConfig() StoreConfig {
	return StoreConfig{
		Path:   viper.GetString("store.path"),
		Format: strings.ToLower(strings.TrimSpace(viper.GetString("store.format"))),
	}
}

// GetQuickSaveConfig returns the quick-save settings.
func GetQuickSaveConfig() QuickSaveConfig {
	return QuickSaveConfig{
		Prefix:     viper.GetString("quickSave.prefix"),
		TimeFormat: viper.GetString("quickSave.timeFormat"),
	}
}

// GetDisplayConfig returns the list display settings.
func GetDisplayConfig() DisplayConfig {
	return DisplayConfig{TimeFormat: viper.GetString("display.timeFormat")}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// ResolveStorePath returns store.path when set, otherwise
// <user config dir>/ViewVolt/ViewVoltPositions<ext>.
func ResolveStorePath(ext string) (string, error) {
	if p := GetStoreConfig().Path; p != "" {
		return filepath.Clean(p), nil
	}
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(base, AppDirName, StoreBaseName+ext), nil
}

// ResolveLogsDir returns logsDir when set, otherwise a logs folder next to the store.
func ResolveLogsDir(storePath string) string {
	if d := viper.GetString("logsDir"); d != "" {
		return d
	}
	return filepath.Join(filepath.Dir(storePath), "logs")
}
