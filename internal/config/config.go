package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override (Q5_LISTEN, ...).
const EnvPrefix = "Q5"

// Server is the configuration of `q5 serve`.
type Server struct {
	Listen    string `mapstructure:"listen"`
	TablePath string `mapstructure:"table_path"`
	Threads   int    `mapstructure:"threads"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads defaults, then the optional config file, then Q5_* environment
// variables. An empty file path means no file.
func Load(file string) (*Server, error) {
	v := viper.New()
	v.SetDefault("listen", ":8080")
	v.SetDefault("table_path", "./tables")
	v.SetDefault("threads", runtime.NumCPU())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg := &Server{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Server) Validate() error {
	if s.Listen == "" {
		return errors.New("config: listen address is required")
	}
	if s.TablePath == "" {
		return errors.New("config: table_path is required")
	}
	if s.Threads < 1 {
		return fmt.Errorf("config: threads must be at least 1, got %d", s.Threads)
	}
	return nil
}
