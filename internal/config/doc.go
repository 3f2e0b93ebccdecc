// Package config loads the epicenter configuration.
//
// Settings come from three layers, higher layers overriding lower:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. Environment variables prefixed with EPICENTER_
//
// A TOML file looks like:
//
//	[dispatch]
//	mode = "async"
//	workers = 4
//	listener_timeout = "2s"
//
//	[log]
//	level = "debug"
//
//	[journal]
//	path = "epicenter.db"
//
//	[[scripts]]
//	path = "scripts/tag.lua"
//	function = "on_event"
//
// The matching environment overrides are EPICENTER_DISPATCH_MODE,
// EPICENTER_DISPATCH_WORKERS, EPICENTER_DISPATCH_LISTENER_TIMEOUT,
// EPICENTER_LOG_LEVEL, EPICENTER_JOURNAL_PATH and so on.
package config
