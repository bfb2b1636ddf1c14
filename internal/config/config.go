package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "spooker/internal/errors"
)

// envPrefix namespaces every environment variable, e.g. SPOOKER_SERVER_PORT.
const envPrefix = "SPOOKER"

var timezoneOffsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

// Config is the complete application configuration. Values are layered:
// built-in defaults, then the YAML file, then environment variables.
type Config struct {
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Watcher    WatcherConfig    `yaml:"watcher" envconfig:"WATCHER"`
	Notify     NotifyConfig     `yaml:"notify" envconfig:"NOTIFY"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ProcessingConfig controls how input files are parsed and how the output
// statistics are produced.
type ProcessingConfig struct {
	// Delimiter is the CSV field separator; empty requests auto-detection.
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"omitempty,len=1"`
	// Timezone is the fixed UTC offset stamped onto statistics starts.
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE" validate:"tzoffset"`
	// FormatOverride skips classification when set.
	FormatOverride string `yaml:"format_override" envconfig:"FORMAT_OVERRIDE" validate:"omitempty,oneof=legacy interval cumulative"`
	// Resolution selects the emitted statistics granularity.
	Resolution string `yaml:"resolution" envconfig:"RESOLUTION" validate:"oneof=hourly daily"`
	// OutputBase is the filename stem of the generated YAML files.
	OutputBase string `yaml:"output_base" envconfig:"OUTPUT_BASE" validate:"required"`
	// Backups controls .bak rotation of existing outputs before overwrite.
	Backups     bool `yaml:"backups" envconfig:"BACKUPS"`
	BackupsKept int  `yaml:"backups_kept" envconfig:"BACKUPS_KEPT" validate:"min=1,max=20"`
}

// PathsConfig locates the working directories.
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	WebDir    string `yaml:"web_dir" envconfig:"WEB_DIR"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
	// Rotation limits for the file output.
	MaxSizeMB  int `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"min=1"`
	MaxBackups int `yaml:"max_backups" envconfig:"MAX_BACKUPS" validate:"min=0"`
	MaxAgeDays int `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS" validate:"min=0"`
}

// ServerConfig configures the web surface.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1024"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig throttles the HTTP API.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// WatcherConfig configures the input-folder watcher.
type WatcherConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	// SettleDelay is how long a new file must sit unchanged before it is
	// picked up; email clients write attachments in several chunks.
	SettleDelay time.Duration `yaml:"settle_delay" envconfig:"SETTLE_DELAY"`
}

// NotifyConfig configures the optional Home Assistant callback.
type NotifyConfig struct {
	Enabled bool          `yaml:"enabled" envconfig:"ENABLED"`
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`
	Token   string        `yaml:"token" envconfig:"TOKEN"`
	Service string        `yaml:"service" envconfig:"SERVICE"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// WebSocketConfig configures the status broadcast hub.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load reads the configuration from the conventional file locations plus
// the environment. Load errors carry the configuration error kind.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file path; empty skips the
// file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, apperrors.Configurationf("file", "read %s: %v", configFile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Configurationf("file", "parse %s: %v", configFile, err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, apperrors.Configurationf("env", "%v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags plus the cross-field rules that tags
// cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("tzoffset", func(fl validator.FieldLevel) bool {
		return timezoneOffsetPattern.MatchString(fl.Field().String())
	}); err != nil {
		return apperrors.Configurationf("validator", "%v", err)
	}

	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return apperrors.Configurationf(first.Namespace(),
				"value %q fails rule %q", fmt.Sprintf("%v", first.Value()), first.Tag())
		}
		return apperrors.Configurationf("config", "%v", err)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return apperrors.Configurationf("logging.file_path",
			"required when output is %q", c.Logging.Output)
	}
	if c.Notify.Enabled && c.Notify.Token == "" {
		return apperrors.Configurationf("notify.token", "required when notify is enabled")
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or zero to request
// auto-detection.
func (c *Config) DelimiterRune() rune {
	if c.Processing.Delimiter == "" {
		return 0
	}
	return []rune(c.Processing.Delimiter)[0]
}

// findConfigFile probes the conventional locations.
func findConfigFile() string {
	for _, candidate := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Default returns the built-in configuration, used as the base layer of
// Load and by the CLI before flags are applied.
func Default() *Config {
	return &Config{
		Processing: ProcessingConfig{
			Delimiter:   ";",
			Timezone:    "+02:00",
			Resolution:  "hourly",
			OutputBase:  "energy_statistics",
			Backups:     true,
			BackupsKept: 3,
		},
		Paths: PathsConfig{
			InputDir:  "data/input",
			OutputDir: "data/output",
			LogsDir:   "logs",
			WebDir:    "web",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "console",
			FilePath:   "logs/spooker.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Server: ServerConfig{
			Port:            8099,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Watcher: WatcherConfig{
			Enabled:     true,
			SettleDelay: 2 * time.Second,
		},
		Notify: NotifyConfig{
			BaseURL: "http://supervisor/core/api",
			Service: "persistent_notification/create",
			Timeout: 10 * time.Second,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
