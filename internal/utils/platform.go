package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Fallback when PATHEXT is unset, matching the Windows default.
const defaultPathExt = ".COM;.EXE;.BAT;.CMD"

// WindowsExecutableExtensions parses PATHEXT into a set of lowercase
// extensions, each with its leading dot.
func WindowsExecutableExtensions() map[string]bool {
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = defaultPathExt
	}
	set := make(map[string]bool)
	for _, ext := range SplitAndTrim(pathext, ";") {
		ext = strings.ToLower(ext)
		if ext[0] != '.' {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// IsWindowsExecutable reports whether path carries an extension that
// PATHEXT marks as executable.
func IsWindowsExecutable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && WindowsExecutableExtensions()[ext]
}
