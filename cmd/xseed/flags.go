// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/config"
	"github.com/xseed/xseed/internal/domain"
)

// sharedFlags holds every spec §6 "shared option" as a pflag-bound local
// variable. registerSharedFlags wires them onto the root command's
// persistent flag set (so every subcommand accepts them); applyFlagOverrides
// copies the ones the operator actually set over the file/env-loaded Config.
var sharedFlags struct {
	host                  string
	port                  int
	noPort                bool
	baseURL               string
	apiKey                string
	dataDir               string
	databasePath          string
	outputDir             string
	torrentDir            string
	linkDir               string
	linkType              string
	matchMode             string
	action                string
	flatLinking           bool
	maxDataDepth          int
	torznab               []string
	dataDirs              []string
	blockList             []string
	sonarr                []string
	radarr                []string
	includeNonVideos      bool
	includeSingleEpisodes bool
	fuzzySizeThreshold    float64
	excludeOlder          int
	excludeRecentSearch   int
	duplicateCategories   bool
	notificationWebhook   string
	delay                 int
	snatchTimeout         string
	searchTimeout         string
	searchLimit           int
	searchCadence         string
	rssCadence            string
	rtorrentURL           string
	qbittorrentURL        string
	transmissionURL       string
	delugeURL             string
	logLevel              string
	logPath               string
	logMaxSize            int
	logMaxBackups         int
	metricsEnabled        bool
	verbose               bool
}

func registerSharedFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	s := &sharedFlags

	f.StringVar(&s.host, "host", "", "Address the admin API listens on")
	f.IntVar(&s.port, "port", 0, "Port the admin API listens on (default 2468)")
	f.BoolVar(&s.noPort, "no-port", false, "Disable the admin API entirely")
	f.StringVar(&s.baseURL, "base-url", "", "Base URL the admin API is served under")
	f.StringVar(&s.apiKey, "api-key", "", "Admin API bearer key")
	f.StringVar(&s.dataDir, "data-dir", "", "Directory xseed stores its database and state in")
	f.StringVar(&s.databasePath, "database-path", "", "Path to the SQLite database file")
	f.StringVar(&s.outputDir, "output-dir", "", "Directory cross-seed artifact torrents are written to")
	f.StringVar(&s.torrentDir, "torrent-dir", "", "Directory of .torrent files to cross-seed")
	f.StringVar(&s.linkDir, "link-dir", "", "Directory the linker places linked data trees in")
	f.StringVar(&s.linkType, "link-type", "", "hardlink | symlink | reflink")
	f.StringVar(&s.matchMode, "match-mode", "", "safe | risky | partial")
	f.StringVar(&s.action, "action", "", "save | inject")
	f.BoolVar(&s.flatLinking, "flat-linking", false, "Place link trees directly under link-dir instead of per-tracker subdirectories")
	f.IntVar(&s.maxDataDepth, "max-data-depth", 0, "Directory recursion depth for data-dir searchee discovery (default 2)")
	f.StringSliceVar(&s.torznab, "torznab", nil, "Torznab indexer URLs (with apikey query param)")
	f.StringSliceVar(&s.dataDirs, "data-dirs", nil, "Directories to search for media searchees")
	f.StringSliceVar(&s.blockList, "block-list", nil, "Names to exclude from searchee discovery")
	f.StringSliceVar(&s.sonarr, "sonarr", nil, "Sonarr instance URLs (with apikey query param)")
	f.StringSliceVar(&s.radarr, "radarr", nil, "Radarr instance URLs (with apikey query param)")
	f.BoolVar(&s.includeNonVideos, "include-non-videos", false, "Don't drop searchees with no video-extension files")
	f.BoolVar(&s.includeSingleEpisodes, "include-single-episodes", false, "Don't drop single-episode searchees")
	f.Float64Var(&s.fuzzySizeThreshold, "fuzzy-size-threshold", 0, "Fractional size tolerance for fuzzy matching (default 0.02)")
	f.IntVar(&s.excludeOlder, "exclude-older", 0, "Skip searchees older than this many minutes")
	f.IntVar(&s.excludeRecentSearch, "exclude-recent-search", 0, "Skip searchees searched within this many minutes")
	f.BoolVar(&s.duplicateCategories, "duplicate-categories", false, "Create a sibling category on inject instead of reusing the source's")
	f.StringVar(&s.notificationWebhook, "notification-webhook-url", "", "Webhook URL for match/error notifications")
	f.IntVar(&s.delay, "delay", 0, "Seconds to pause after a searchee's indexer queries before the next searchee (default 10)")
	f.StringVar(&s.snatchTimeout, "snatch-timeout", "", "Timeout for snatching a candidate torrent")
	f.StringVar(&s.searchTimeout, "search-timeout", "", "Timeout for a single Torznab query")
	f.IntVar(&s.searchLimit, "search-limit", 0, "Max searchees searched per bulk search pass (0 = unlimited)")
	f.StringVar(&s.searchCadence, "search-cadence", "", "Bulk search pass cadence")
	f.StringVar(&s.rssCadence, "rss-cadence", "", "RSS scan pass cadence")
	f.StringVar(&s.rtorrentURL, "rtorrent-rpc-url", "", "rtorrent XML-RPC URL")
	f.StringVar(&s.qbittorrentURL, "qbittorrent-rpc-url", "", "qBittorrent WebUI URL")
	f.StringVar(&s.transmissionURL, "transmission-rpc-url", "", "Transmission RPC URL")
	f.StringVar(&s.delugeURL, "deluge-rpc-url", "", "Deluge JSON-RPC URL")
	f.StringVar(&s.logLevel, "log-level", "", "ERROR | WARN | INFO | DEBUG | TRACE")
	f.StringVar(&s.logPath, "log-path", "", "Log file path (rotated); stdout when unset")
	f.IntVar(&s.logMaxSize, "log-max-size", 0, "Max log file size in megabytes before rotation")
	f.IntVar(&s.logMaxBackups, "log-max-backups", 0, "Rotated log files to retain")
	f.BoolVar(&s.metricsEnabled, "metrics-enabled", false, "Expose /metrics on the admin API")
	f.BoolVarP(&s.verbose, "verbose", "v", false, "Raise the log level to debug")
}

// applyFlagOverrides copies every explicitly-set flag over cfg, then
// re-derives the parsed duration fields so SearchTimeout/SnatchTimeout/
// SearchCadenceParsed/RSSCadenceParsed stay in sync with any overridden
// raw string.
func applyFlagOverrides(cmd *cobra.Command, cfg *domain.Config) error {
	s := &sharedFlags
	changed := cmd.Flags().Changed

	if changed("host") {
		cfg.Host = s.host
	}
	if changed("port") {
		cfg.Port = s.port
	}
	if changed("no-port") {
		cfg.NoPort = s.noPort
	}
	if changed("base-url") {
		cfg.BaseURL = s.baseURL
	}
	if changed("api-key") {
		cfg.APIKey = s.apiKey
	}
	if changed("data-dir") {
		cfg.DataDir = s.dataDir
	}
	if changed("database-path") {
		cfg.DatabasePath = s.databasePath
	}
	if changed("output-dir") {
		cfg.OutputDir = s.outputDir
	}
	if changed("torrent-dir") {
		cfg.TorrentDir = s.torrentDir
	}
	if changed("link-dir") {
		cfg.LinkDir = s.linkDir
	}
	if changed("link-type") {
		cfg.LinkType = s.linkType
	}
	if changed("match-mode") {
		cfg.MatchMode = s.matchMode
	}
	if changed("action") {
		cfg.Action = s.action
	}
	if changed("flat-linking") {
		cfg.FlatLinking = s.flatLinking
	}
	if changed("max-data-depth") {
		cfg.MaxDataDepth = s.maxDataDepth
	}
	if changed("torznab") {
		cfg.Torznab = s.torznab
	}
	if changed("data-dirs") {
		cfg.DataDirs = s.dataDirs
	}
	if changed("block-list") {
		cfg.BlockList = s.blockList
	}
	if changed("sonarr") {
		cfg.Sonarr = s.sonarr
	}
	if changed("radarr") {
		cfg.Radarr = s.radarr
	}
	if changed("include-non-videos") {
		cfg.IncludeNonVideos = s.includeNonVideos
	}
	if changed("include-single-episodes") {
		cfg.IncludeSingleEpisodes = s.includeSingleEpisodes
	}
	if changed("fuzzy-size-threshold") {
		cfg.FuzzySizeThreshold = s.fuzzySizeThreshold
	}
	if changed("exclude-older") {
		cfg.ExcludeOlder = s.excludeOlder
	}
	if changed("exclude-recent-search") {
		cfg.ExcludeRecentSearch = s.excludeRecentSearch
	}
	if changed("duplicate-categories") {
		cfg.DuplicateCategories = s.duplicateCategories
	}
	if changed("notification-webhook-url") {
		cfg.NotificationWebhookURL = s.notificationWebhook
	}
	if changed("delay") {
		cfg.Delay = s.delay
	}
	if changed("snatch-timeout") {
		cfg.SnatchTimeoutRaw = s.snatchTimeout
	}
	if changed("search-timeout") {
		cfg.SearchTimeoutRaw = s.searchTimeout
	}
	if changed("search-limit") {
		cfg.SearchLimit = s.searchLimit
	}
	if changed("search-cadence") {
		cfg.SearchCadence = s.searchCadence
	}
	if changed("rss-cadence") {
		cfg.RSSCadence = s.rssCadence
	}
	if changed("rtorrent-rpc-url") {
		cfg.RTorrentURL = s.rtorrentURL
	}
	if changed("qbittorrent-rpc-url") {
		cfg.QBittorrentURL = s.qbittorrentURL
	}
	if changed("transmission-rpc-url") {
		cfg.TransmissionURL = s.transmissionURL
	}
	if changed("deluge-rpc-url") {
		cfg.DelugeURL = s.delugeURL
	}
	if changed("log-level") {
		cfg.LogLevel = s.logLevel
	}
	if changed("log-path") {
		cfg.LogPath = s.logPath
	}
	if changed("log-max-size") {
		cfg.LogMaxSize = s.logMaxSize
	}
	if changed("log-max-backups") {
		cfg.LogMaxBackups = s.logMaxBackups
	}
	if changed("metrics-enabled") {
		cfg.MetricsEnabled = s.metricsEnabled
	}
	if changed("verbose") {
		cfg.Verbose = s.verbose
	}

	if err := config.ApplyDurations(cfg); err != nil {
		return fmt.Errorf("apply duration overrides: %w", err)
	}
	return nil
}
