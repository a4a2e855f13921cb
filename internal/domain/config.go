// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package domain holds the runtime configuration value threaded through
// every component at construction time. It is never mutated after startup.
package domain

import "time"

// MatchMode selects the strictness level the matcher evaluates candidates at.
type MatchMode string

const (
	MatchModeSafe    MatchMode = "safe"
	MatchModeRisky   MatchMode = "risky"
	MatchModePartial MatchMode = "partial"
)

// LinkType selects how the linker mirrors a matched candidate's layout.
type LinkType string

const (
	LinkTypeHardlink LinkType = "hardlink"
	LinkTypeSymlink  LinkType = "symlink"
	LinkTypeReflink  LinkType = "reflink"
)

// Action selects what the pipeline does with a confirmed match.
type Action string

const (
	ActionSave   Action = "save"
	ActionInject Action = "inject"
)

// Config is the immutable application configuration. Every field has a
// config-file key (toml/mapstructure) and an environment-variable override
// under the XSEED__ prefix; most fields also have a matching CLI flag.
type Config struct {
	Version string `toml:"-" mapstructure:"-"`

	Host                   string `toml:"host" mapstructure:"host"`
	BaseURL                string `toml:"baseUrl" mapstructure:"baseUrl"`
	APIKey                 string `toml:"apiKey" mapstructure:"apiKey"`
	LogLevel               string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath                string `toml:"logPath" mapstructure:"logPath"`
	DataDir                string `toml:"dataDir" mapstructure:"dataDir"`
	DatabasePath           string `toml:"databasePath" mapstructure:"databasePath"`
	OutputDir              string `toml:"outputDir" mapstructure:"outputDir"`
	TorrentDir             string `toml:"torrentDir" mapstructure:"torrentDir"`
	LinkDir                string `toml:"linkDir" mapstructure:"linkDir"`
	LinkType               string `toml:"linkType" mapstructure:"linkType"`
	MatchMode              string `toml:"matchMode" mapstructure:"matchMode"`
	Action                 string `toml:"action" mapstructure:"action"`
	RTorrentURL            string `toml:"rtorrentRpcUrl" mapstructure:"rtorrentRpcUrl"`
	QBittorrentURL         string `toml:"qbittorrentRpcUrl" mapstructure:"qbittorrentRpcUrl"`
	TransmissionURL        string `toml:"transmissionRpcUrl" mapstructure:"transmissionRpcUrl"`
	DelugeURL              string `toml:"delugeRpcUrl" mapstructure:"delugeRpcUrl"`
	NotificationWebhookURL string `toml:"notificationWebhookUrl" mapstructure:"notificationWebhookUrl"`
	SearchCadence          string `toml:"searchCadence" mapstructure:"searchCadence"`
	RSSCadence             string `toml:"rssCadence" mapstructure:"rssCadence"`
	SearchTimeoutRaw       string `toml:"searchTimeout" mapstructure:"searchTimeout"`
	SnatchTimeoutRaw       string `toml:"snatchTimeout" mapstructure:"snatchTimeout"`

	DataDirs  []string `toml:"dataDirs" mapstructure:"dataDirs"`
	Torznab   []string `toml:"torznab" mapstructure:"torznab"`
	BlockList []string `toml:"blockList" mapstructure:"blockList"`
	Sonarr    []string `toml:"sonarr" mapstructure:"sonarr"`
	Radarr    []string `toml:"radarr" mapstructure:"radarr"`

	VideoExtensions     []string `toml:"videoExtensions" mapstructure:"videoExtensions"`
	IgnorableExtensions []string `toml:"ignorableExtensions" mapstructure:"ignorableExtensions"`

	Port                int `toml:"port" mapstructure:"port"`
	MaxDataDepth        int `toml:"maxDataDepth" mapstructure:"maxDataDepth"`
	SearchLimit         int `toml:"searchLimit" mapstructure:"searchLimit"`
	Delay               int `toml:"delay" mapstructure:"delay"`
	ExcludeOlder        int `toml:"excludeOlder" mapstructure:"excludeOlder"`
	ExcludeRecentSearch int `toml:"excludeRecentSearch" mapstructure:"excludeRecentSearch"`
	LogMaxSize          int `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups       int `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	FuzzySizeThreshold float64 `toml:"fuzzySizeThreshold" mapstructure:"fuzzySizeThreshold"`

	NoPort                bool `toml:"noPort" mapstructure:"noPort"`
	IncludeNonVideos      bool `toml:"includeNonVideos" mapstructure:"includeNonVideos"`
	IncludeSingleEpisodes bool `toml:"includeSingleEpisodes" mapstructure:"includeSingleEpisodes"`
	FlatLinking           bool `toml:"flatLinking" mapstructure:"flatLinking"`
	DuplicateCategories   bool `toml:"duplicateCategories" mapstructure:"duplicateCategories"`
	MetricsEnabled        bool `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	Verbose               bool `toml:"verbose" mapstructure:"verbose"`

	// Parsed forms of SearchTimeoutRaw/SnatchTimeoutRaw/SearchCadence/RSSCadence,
	// filled in by config.New.
	SearchTimeout        time.Duration `toml:"-" mapstructure:"-"`
	SnatchTimeout        time.Duration `toml:"-" mapstructure:"-"`
	SearchCadenceParsed  time.Duration `toml:"-" mapstructure:"-"`
	RSSCadenceParsed     time.Duration `toml:"-" mapstructure:"-"`
}

// EffectiveMatchMode returns the configured match mode, defaulting to safe.
func (c *Config) EffectiveMatchMode() MatchMode {
	switch MatchMode(c.MatchMode) {
	case MatchModeRisky:
		return MatchModeRisky
	case MatchModePartial:
		return MatchModePartial
	default:
		return MatchModeSafe
	}
}

// EffectiveAction returns the configured action, defaulting to save.
func (c *Config) EffectiveAction() Action {
	if Action(c.Action) == ActionInject {
		return ActionInject
	}
	return ActionSave
}

// EffectiveLinkType returns the configured link type, defaulting to hardlink.
func (c *Config) EffectiveLinkType() LinkType {
	switch LinkType(c.LinkType) {
	case LinkTypeSymlink:
		return LinkTypeSymlink
	case LinkTypeReflink:
		return LinkTypeReflink
	default:
		return LinkTypeHardlink
	}
}

// DefaultVideoExtensions is the GLOSSARY default, used when config leaves
// VideoExtensions empty.
var DefaultVideoExtensions = []string{
	".mkv", ".mp4", ".avi", ".m2ts", ".ts", ".mov", ".wmv", ".iso", ".vob", ".bdmv", ".m4v",
}

// DefaultIgnorableExtensions is the GLOSSARY default, used when config
// leaves IgnorableExtensions empty.
var DefaultIgnorableExtensions = []string{
	".nfo", ".srt", ".sub", ".idx", ".txt", ".jpg", ".jpeg", ".png", ".sfv", ".md5", ".cue",
}

// DiscExtensions identifies video-disc searchees that must be flagged for
// recheck after injection regardless of verdict.
var DiscExtensions = []string{".iso", ".vob", ".bdmv", ".m2ts"}

// Default scheduler cadences, used when SearchCadence/RSSCadence parse to
// zero (unset).
const (
	DefaultSearchCadence = 24 * time.Hour
	DefaultRSSCadence    = 10 * time.Minute
)

// EffectiveSearchCadence returns the parsed search cadence or the default.
func (c *Config) EffectiveSearchCadence() time.Duration {
	if c.SearchCadenceParsed > 0 {
		return c.SearchCadenceParsed
	}
	return DefaultSearchCadence
}

// EffectiveRSSCadence returns the parsed RSS cadence or the default.
func (c *Config) EffectiveRSSCadence() time.Duration {
	if c.RSSCadenceParsed > 0 {
		return c.RSSCadenceParsed
	}
	return DefaultRSSCadence
}

// EffectiveVideoExtensions returns the configured set or the default.
func (c *Config) EffectiveVideoExtensions() []string {
	if len(c.VideoExtensions) > 0 {
		return c.VideoExtensions
	}
	return DefaultVideoExtensions
}

// EffectiveIgnorableExtensions returns the configured set or the default.
func (c *Config) EffectiveIgnorableExtensions() []string {
	if len(c.IgnorableExtensions) > 0 {
		return c.IgnorableExtensions
	}
	return DefaultIgnorableExtensions
}
