package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"fdstats/internal/stats"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath   string
	RulesPath  string
	OutputPath string
	WindowDays int
	ListenAddr string
	Location   *time.Location
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	windowDays, _ := strconv.Atoi(getEnv("STATS_WINDOW_DAYS", strconv.Itoa(stats.DefaultWindowDays)))

	// The evaluation timezone is the record source's civil time. It is passed
	// explicitly into parsing rather than force-set on the process.
	tzName := getEnv("STATS_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE %q: %w", tzName, err)
	}

	cfg := &AppConfig{
		DataPath:   dataPath,
		RulesPath:  getEnv("STATS_RULES_FILE", ""),
		OutputPath: getEnv("STATS_OUTPUT_FILE", filepath.Join(dataPath, "stats.json")),
		WindowDays: windowDays,
		ListenAddr: getEnv("STATS_LISTEN_ADDR", ":8080"),
		Location:   loc,
	}

	return cfg, nil
}

// LoadRules reads the deployment's classifier rule file. An unset path falls
// back to the reference rule set so local runs work out of the box.
func LoadRules(path string) (stats.Rules, error) {
	if path == "" {
		log.Debug().Msg("No rules file configured, using default rule set")
		return stats.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return stats.Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	var rules stats.Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return stats.Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	applyRuleDefaults(&rules)
	if err := rules.Validate(); err != nil {
		return stats.Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("regions", len(rules.Regions)).Int("typeRules", len(rules.Types)).Msg("Loaded classifier rules")
	return rules, nil
}

// applyRuleDefaults fills fields a deployment file may legitimately omit.
func applyRuleDefaults(rules *stats.Rules) {
	defaults := stats.DefaultRules()
	if rules.DefaultRegion == "" {
		rules.DefaultRegion = defaults.DefaultRegion
	}
	if rules.POVApparatus == "" {
		rules.POVApparatus = defaults.POVApparatus
	}
	if rules.Thresholds.MinIntervalSeconds == 0 {
		rules.Thresholds = defaults.Thresholds
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
