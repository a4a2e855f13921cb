// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the immutable runtime configuration (spec §3.2):
// a TOML file via viper, overridable by XSEED__-prefixed environment
// variables. Cobra persistent flags are not read here: cmd/xseed's
// applyFlagOverrides copies the ones that were set over the returned
// Config. Styled on internal/domain/config.go's toml/mapstructure tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xseed/xseed/internal/domain"
)

// envPrefix already ends in an underscore: viper.SetEnvPrefix inserts one
// more before the key, producing the spec's "XSEED__" double-underscore
// convention (e.g. databasePath -> XSEED__DATABASEPATH).
const envPrefix = "XSEED_"

const (
	defaultSearchTimeout = 30 * time.Second
	defaultSnatchTimeout = 30 * time.Second
	defaultDelay         = 10
	defaultMaxDataDepth  = 2
	defaultPort          = 2468
)

func defaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", defaultPort)
	v.SetDefault("logLevel", "INFO")
	v.SetDefault("logMaxSize", 50)
	v.SetDefault("logMaxBackups", 3)
	v.SetDefault("matchMode", string(domain.MatchModeSafe))
	v.SetDefault("action", string(domain.ActionSave))
	v.SetDefault("linkType", string(domain.LinkTypeHardlink))
	v.SetDefault("maxDataDepth", defaultMaxDataDepth)
	v.SetDefault("delay", defaultDelay)
	v.SetDefault("fuzzySizeThreshold", 0.02)
	v.SetDefault("searchTimeout", "30s")
	v.SetDefault("snatchTimeout", "30s")
	v.SetDefault("searchCadence", "24h")
	v.SetDefault("rssCadence", "10m")
}

// New loads the config file at path (if it exists), layers XSEED__
// environment variables on top, and returns the parsed, validated Config.
// A missing file is not an error: every field still gets its default.
func New(path string) (*domain.Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !isFileNotFoundErr(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabasePath == "" && path != "" {
		cfg.DatabasePath = filepath.Join(filepath.Dir(path), "xseed.db")
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func isFileNotFoundErr(err error) bool {
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok || errors.Is(err, fs.ErrNotExist)
}

// ParseDuration parses spec §6's "1d2h3m" duration strings, extending
// time.ParseDuration with day/week units. Exported for cmd/xseed's CLI
// flags, which accept the same syntax.
func ParseDuration(s string) (time.Duration, error) {
	return parseFlexibleDuration(s)
}

// ApplyDurations re-derives cfg's parsed duration fields (SearchTimeout,
// SnatchTimeout, SearchCadenceParsed, RSSCadenceParsed) from its raw
// string fields. Callers that override a *Raw field (or SearchCadence/
// RSSCadence) directly after config.New — cmd/xseed's CLI flags — must
// call this afterward to keep the parsed fields in sync.
func ApplyDurations(cfg *domain.Config) error {
	return parseDurations(cfg)
}

func parseDurations(cfg *domain.Config) error {
	var err error
	if cfg.SearchTimeout, err = parseFlexibleDuration(cfg.SearchTimeoutRaw); err != nil {
		return fmt.Errorf("searchTimeout: %w", err)
	}
	if cfg.SearchTimeout == 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}
	if cfg.SnatchTimeout, err = parseFlexibleDuration(cfg.SnatchTimeoutRaw); err != nil {
		return fmt.Errorf("snatchTimeout: %w", err)
	}
	if cfg.SnatchTimeout == 0 {
		cfg.SnatchTimeout = defaultSnatchTimeout
	}
	if cfg.SearchCadenceParsed, err = parseFlexibleDuration(cfg.SearchCadence); err != nil {
		return fmt.Errorf("searchCadence: %w", err)
	}
	if cfg.RSSCadenceParsed, err = parseFlexibleDuration(cfg.RSSCadence); err != nil {
		return fmt.Errorf("rssCadence: %w", err)
	}
	return nil
}

var dayWeekUnit = regexp.MustCompile(`(?i)(\d+)([wd])`)

// parseFlexibleDuration extends time.ParseDuration with day/week units
// ("1d2h3m", per spec §6), which the stdlib parser rejects outright.
func parseFlexibleDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var total time.Duration
	rest := dayWeekUnit.ReplaceAllStringFunc(s, func(m string) string {
		sub := dayWeekUnit.FindStringSubmatch(m)
		n, _ := strconv.Atoi(sub[1])
		switch strings.ToLower(sub[2]) {
		case "w":
			total += time.Duration(n) * 7 * 24 * time.Hour
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		}
		return ""
	})

	rest = strings.TrimSpace(rest)
	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		total += d
	}
	return total, nil
}
