package main

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/wiless/coverage/deployment"
)

// AppConfig holds the settings shared by the commands.
type AppConfig struct {
	LogLevel    string
	LogFormat   string
	Trace       bool
	Workers     int
	Addr        string
	MetricsAddr string
	Grid        deployment.GridConfig
}

// gridKeys lists the grid settings that may come from the config file or
// COVERAGE_GRID_* variables.
var gridKeys = []string{
	"latRange", "lonRange", "latStep", "lonStep", "maxRadius", "mobileHeight",
	"maxCells", "sectors", "beamwidth", "kh", "kv", "kp", "nominalGain",
}

func setDefaults(v *viper.Viper) {
	g := deployment.DefaultGridConfig()
	defaults := map[string]interface{}{
		"latRange":     g.LatRange,
		"lonRange":     g.LonRange,
		"latStep":      g.LatStep,
		"lonStep":      g.LonStep,
		"maxRadius":    g.MaxRadiusMeters,
		"mobileHeight": g.MobileHeight,
		"maxCells":     g.MaxCells,
		"sectors":      g.Sectors,
		"beamwidth":    g.HBeamWidth,
		"kh":           g.Kh,
		"kv":           g.Kv,
		"kp":           g.Kp,
		"nominalGain":  g.GainDb,
	}
	for _, key := range gridKeys {
		v.SetDefault("grid."+key, defaults[key])
	}
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("trace", false)
	v.SetDefault("workers", 0)
	v.SetDefault("addr", ":8080")
	v.SetDefault("metricsAddr", ":9090")
}

// ReadAppConfig loads config.{yaml,json} from dir when present, then applies
// COVERAGE_* environment variables and bound flags on top of the defaults.
func ReadAppConfig(v *viper.Viper, dir string) (AppConfig, error) {
	setDefaults(v)
	v.SetConfigName("config")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("COVERAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("reading config: %w", err)
		}
		log.Debugf("no config file in %s, using defaults", dir)
	} else {
		log.Debugf("using config %s", v.ConfigFileUsed())
	}

	cfg := AppConfig{
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		Trace:       v.GetBool("trace"),
		Workers:     v.GetInt("workers"),
		Addr:        v.GetString("addr"),
		MetricsAddr: v.GetString("metricsAddr"),
		Grid:        deployment.DefaultGridConfig(),
	}
	settings := make(map[string]interface{}, len(gridKeys))
	for _, key := range gridKeys {
		settings[key] = v.Get("grid." + key)
	}
	if err := deployment.DecodeGrid(settings, &cfg.Grid); err != nil {
		return cfg, err
	}
	return cfg, cfg.Grid.Validate()
}
