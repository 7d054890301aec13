// Package roadmapdir names the pieces of the .roadmap state directory.
// The template catalog and its schema are not here: they live at the
// project root where they get edited and reviewed.
package roadmapdir

import "path/filepath"

const (
	// Dir is the name of the roadmap state directory.
	Dir = ".roadmap"

	// DefaultReportFile is the generation report name.
	DefaultReportFile = "report.json"

	// ChecklistsDir holds generated task checklists.
	ChecklistsDir = "checklists"

	// PromptsDir holds project-level prompt overrides.
	PromptsDir = "prompts"
)

// DirPath returns the .roadmap directory under workDir.
func DirPath(workDir string) string {
	return filepath.Join(workDir, Dir)
}

// ReportPath returns the generation report path under workDir.
func ReportPath(workDir string) string {
	return filepath.Join(workDir, Dir, DefaultReportFile)
}

// ChecklistsPath returns the checklist directory under workDir.
func ChecklistsPath(workDir string) string {
	return filepath.Join(workDir, Dir, ChecklistsDir)
}

// PromptsPath returns the prompt override directory under workDir.
func PromptsPath(workDir string) string {
	return filepath.Join(workDir, Dir, PromptsDir)
}
