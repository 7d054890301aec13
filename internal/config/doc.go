// Package config loads roadmap settings by layering sources, each one
// overriding the last:
//
//	built-in defaults
//	user file: ~/.roadmap/roadmap.toml, else the OS config directory
//	  (%APPDATA%, ~/Library/Application Support, or $XDG_CONFIG_HOME)
//	  under roadmap/roadmap.toml
//	project file: roadmap.toml or .roadmap.toml in the working directory
//	environment: ROADMAP_* variables
//	flags
//
// A -config flag or ROADMAP_CONFIG skips discovery and loads exactly
// the named file. Load records which layer supplied every field so
// doctor can print provenance.
package config
