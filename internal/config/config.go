// Package config loads traitc settings from traitc.yaml, TRAITC_*
// environment variables and built-in defaults, in increasing order of
// precedence: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. TRAITC_STORE_PATH.
const EnvPrefix = "TRAITC"

// Config is the traitc configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Loader LoaderConfig `mapstructure:"loader"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`

	// Layers is the default chain used by `traitc store rebuild`, base
	// first.
	Layers []string `mapstructure:"layers" validate:"min=1,dive,layer"`
}

// StoreConfig locates the component store.
type StoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoaderConfig configures signature loading.
type LoaderConfig struct {
	CacheSize int    `mapstructure:"cache_size" validate:"gte=1,lte=1048576"`
	Layer     string `mapstructure:"layer" validate:"required,layer"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// OutputConfig configures command output.
type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// SlogLevel returns the configured level.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

var layerName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their config keys
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("layer", func(fl validator.FieldLevel) bool {
		return layerName.MatchString(fl.Field().String())
	})
}

// Option configures Load.
type Option func(*options)

type options struct {
	file        string
	searchPaths []string
}

// WithFile reads the given file instead of searching for traitc.yaml.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithSearchPaths replaces the directories searched for traitc.yaml.
func WithSearchPaths(dirs ...string) Option {
	return func(o *options) {
		o.searchPaths = dirs
	}
}

// DefaultSearchPaths returns the working directory and the user config
// directory.
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "traitc"))
	}
	return paths
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "traitc.db")
	v.SetDefault("loader.cache_size", 256)
	v.SetDefault("loader.layer", "signature")
	v.SetDefault("log.level", "info")
	v.SetDefault("output.format", "text")
	v.SetDefault("layers", []string{"base"})
}

// Load reads the configuration. A missing traitc.yaml is not an error; a
// file named with WithFile must exist.
func Load(opts ...Option) (*Config, error) {
	o := options{searchPaths: DefaultSearchPaths()}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)

	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		v.SetConfigName("traitc")
		v.SetConfigType("yaml")
		for _, dir := range o.searchPaths {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		// drop the root struct name from the namespace
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value())
		} else {
			msgs[i] = fmt.Sprintf("%s: failed %s (got %v)", key, fe.Tag(), fe.Value())
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
