// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// GenerateTemplate renders the commented TOML template for `gen-config`
// (spec §6). The --docker variant binds to 0.0.0.0 with a container-shaped
// dataDir, matching the rest of the pack's gen-config conventions.
func GenerateTemplate(docker bool) string {
	host := "127.0.0.1"
	dataDir := "./data"
	if docker {
		host = "0.0.0.0"
		dataDir = "/config"
	}

	return fmt.Sprintf(`# config.toml - Auto-generated on first run

# Host and port the admin API listens on.
host = "%s"
port = 2468
#noPort = false

# Directory xseed stores its database and state in.
dataDir = "%s"

# Log file path
# If not defined, logs to stdout
#logPath = "log/xseed.log"

# Log rotation
# Maximum log file size in megabytes before rotation
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
#logMaxBackups = 3

# Log level
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Torznab indexer URLs (with apikey query param), one per entry.
torznab = []

# Directories to search for media in lieu of / in addition to torrentDir.
dataDirs = []

# Directory containing .torrent files to cross-seed.
#torrentDir = ""

# Directory cross-seed artifact torrents are written to.
outputDir = "./output"

# safe | risky | partial
matchMode = "safe"

# save | inject
action = "save"

# Cadence of the bulk search and RSS scan passes.
searchCadence = "24h"
rssCadence = "10m"
`, host, dataDir)
}

var tomlKeyLine = func(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^#?\s*` + regexp.QuoteMeta(key) + `\s*=.*$`)
}

// setOrAppendTOMLKey rewrites key's line in place (commented or not), or
// inserts it just before the first [section] header if the key is absent
// entirely.
func setOrAppendTOMLKey(content, key, value string) string {
	line := key + " = " + value
	re := tomlKeyLine(key)
	if re.MatchString(content) {
		return re.ReplaceAllString(content, line)
	}

	if idx := strings.Index(content, "\n["); idx != -1 {
		return content[:idx+1] + line + "\n" + content[idx+1:]
	}
	return strings.TrimRight(content, "\n") + "\n" + line + "\n"
}

// updateLogSettingsInTOML rewrites the four log-related keys of an
// existing config file in place, preserving comments and section order.
func updateLogSettingsInTOML(content, level, path string, maxSize, maxBackups int) string {
	content = setOrAppendTOMLKey(content, "logLevel", quoteTOML(level))
	content = setOrAppendTOMLKey(content, "logPath", quoteTOML(path))
	content = setOrAppendTOMLKey(content, "logMaxSize", strconv.Itoa(maxSize))
	content = setOrAppendTOMLKey(content, "logMaxBackups", strconv.Itoa(maxBackups))
	return content
}

func quoteTOML(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// SetAPIKey rewrites the apiKey line of an existing config.toml's content,
// for the `reset-api-key` CLI command.
func SetAPIKey(content, apiKey string) string {
	return setOrAppendTOMLKey(content, "apiKey", quoteTOML(apiKey))
}
