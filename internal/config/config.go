package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appName    = "ipcam"
	configName = "config"
	envPrefix  = "IPCAM"
)

// Settings is the typed view of the loaded configuration.
type Settings struct {
	DefaultCamera string

	DBDriver string
	DBDSN    string

	Timeout      time.Duration
	SetTimeout   time.Duration
	StrictStatus bool

	StreamScheme    string
	StreamPath      string
	StreamMulticast bool

	MaxReadFailures int
	ReadBackoff     time.Duration

	RecordingDir string
	Codec        string

	LogLevel  string
	LogFormat string
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("default_camera", "")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", filepath.Join(xdg.DataHome, appName, "cameras.db"))

	v.SetDefault("camera.timeout", "3s")
	v.SetDefault("camera.set_timeout", "0s")
	v.SetDefault("camera.strict_status", false)

	v.SetDefault("stream.scheme", "rtsp")
	v.SetDefault("stream.path", "/axis-media/media.amp")
	v.SetDefault("stream.multicast", true)
	v.SetDefault("stream.max_read_failures", 0)
	v.SetDefault("stream.read_backoff", "0s")

	v.SetDefault("recording.dir", filepath.Join(xdg.UserDirs.Videos, appName))
	v.SetDefault("recording.codec", "mp4v")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// InitConfig reads the config file, a .env file in the working directory
// and IPCAM_* environment variables.
func InitConfig(cfgFile string) {
	// a missing .env is fine
	_ = godotenv.Load()

	SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
	}
}

// Load returns the current configuration of v.
func Load(v *viper.Viper) Settings {
	return Settings{
		DefaultCamera: v.GetString("default_camera"),

		DBDriver: v.GetString("db.driver"),
		DBDSN:    v.GetString("db.dsn"),

		Timeout:      v.GetDuration("camera.timeout"),
		SetTimeout:   v.GetDuration("camera.set_timeout"),
		StrictStatus: v.GetBool("camera.strict_status"),

		StreamScheme:    v.GetString("stream.scheme"),
		StreamPath:      v.GetString("stream.path"),
		StreamMulticast: v.GetBool("stream.multicast"),

		MaxReadFailures: v.GetInt("stream.max_read_failures"),
		ReadBackoff:     v.GetDuration("stream.read_backoff"),

		RecordingDir: v.GetString("recording.dir"),
		Codec:        v.GetString("recording.codec"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}
}

// DefaultConfigPath is where SaveDefaultCamera writes when no config file
// was read.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configName+".yaml")
}

// SaveDefaultCamera persists the camera used when --camera is not given.
func SaveDefaultCamera(name string) error {
	return saveKey(viper.GetViper(), "default_camera", name)
}

func saveKey(v *viper.Viper, key, value string) error {
	v.Set(key, value)

	if err := v.WriteConfig(); err != nil {
		// No config file was read: create the default one.
		path := DefaultConfigPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return v.WriteConfigAs(path)
	}
	return nil
}
