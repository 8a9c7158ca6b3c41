package main

// this file holds everything that talks to viper; flags and env overrides
// live in main.go.
import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/rjboer/GoRCS/internal/mie"
	"github.com/rjboer/GoRCS/internal/record"
)

// fileConfig is the optional rcs.{toml,yaml,json} config file. It also
// carries the built-in defaults that flags and env vars override.
type fileConfig struct {
	Input        string  `mapstructure:"input"`
	InputURL     string  `mapstructure:"input_url"`
	Variant      string  `mapstructure:"variant"`
	OutputDir    string  `mapstructure:"output_dir"`
	Step         float64 `mapstructure:"step"`
	NMax         int     `mapstructure:"n_max"`
	WaveSpeed    float64 `mapstructure:"wave_speed"`
	Workers      int     `mapstructure:"workers"`
	LogLevel     string  `mapstructure:"log_level"`
	LogFormat    string  `mapstructure:"log_format"`
	WebAddr      string  `mapstructure:"web_addr"`
	HistoryLimit int     `mapstructure:"history_limit"`
	Advertise    bool    `mapstructure:"advertise"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		InputURL:     record.DefaultURL,
		Variant:      record.DefaultVariant,
		OutputDir:    "results",
		Step:         mie.DefaultStep,
		NMax:         mie.DefaultNMax,
		WaveSpeed:    mie.DefaultWaveSpeed,
		Workers:      runtime.NumCPU(),
		LogLevel:     "info",
		LogFormat:    "text",
		HistoryLimit: 100,
	}
}

// loadConfig overlays a config file on defaults. An empty path looks for
// "rcs" with any supported extension in /etc/rcs and the working directory
// and is not an error when nothing is found; an explicit path must exist.
func loadConfig(path string, defaults fileConfig) (fileConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rcs")
		v.AddConfigPath("/etc/rcs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			return defaults, nil
		}
		return fileConfig{}, fmt.Errorf("read config: %w", err)
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("decode config %s: %w", v.ConfigFileUsed(), err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	return cfg, nil
}

// configPath finds -config/--config in args before the full flag set is
// parsed, falling back to RCS_CONFIG.
func configPath(args []string, lookup func(string) (string, bool)) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return envString(lookup, "RCS_CONFIG", "")
}
