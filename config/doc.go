// Copyright (c) BrowserPilot Authors.
// Licensed under the MIT License.

// Package config provides unified configuration loading for the service.
//
// Configuration is resolved in three layers with increasing precedence:
// built-in defaults, an optional YAML file, and environment variables with
// the BROWSERPILOT_ prefix (nested fields join with underscores, e.g.
// BROWSERPILOT_BROWSER_HEADLESS=true).
package config
