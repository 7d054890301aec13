package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/nibzard/roadmap-go/internal/roadmapdir"
)

const (
	DraftPrompt         = "draft.md"
	ChecklistPrompt     = "checklist.md"
	DraftSchemaFile     = "draft.schema.json"
	ChecklistSchemaFile = "checklist.schema.json"
)

// Resolution source labels, reported by doctor.
const (
	SourceDev     = "dev"
	SourceProject = "project"
	SourceUser    = "user"
	SourceBundled = "bundled"
)

// UserPromptDir returns the per-user prompt override directory.
func UserPromptDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".roadmap", "prompts"), nil
}

// Store resolves prompt assets. Project overrides win over user
// overrides, which win over the bundled copies. When a dev directory is
// set (ROADMAP_PROMPT_DIR under ROADMAP_PROMPT_MODE=dev) it is
// consulted first and a missing file there is an error, so edits during
// prompt development are never silently shadowed.
type Store struct {
	projectDir string
	devDir     string
}

// NewStore creates a prompt store for a project root. devDir is empty
// outside prompt development mode.
func NewStore(projectRoot, devDir string) *Store {
	return &Store{
		projectDir: roadmapdir.PromptsPath(projectRoot),
		devDir:     devDir,
	}
}

// ProjectDir returns the project override directory.
func (s *Store) ProjectDir() string {
	return s.projectDir
}

// Resolve returns the asset content and the source it was loaded from.
func (s *Store) Resolve(name string) (string, string, error) {
	if name == "" {
		return "", "", errors.New("prompt name is empty")
	}
	if s.devDir != "" {
		data, err := os.ReadFile(filepath.Join(s.devDir, name))
		if err != nil {
			return "", "", fmt.Errorf("read dev prompt %q: %w", name, err)
		}
		return string(data), SourceDev, nil
	}
	if content, ok, err := readOverride(s.projectDir, name); err != nil {
		return "", "", err
	} else if ok {
		return content, SourceProject, nil
	}
	if userDir, err := UserPromptDir(); err == nil {
		if content, ok, err := readOverride(userDir, name); err != nil {
			return "", "", err
		} else if ok {
			return content, SourceUser, nil
		}
	}
	content, ok := bundledAssets[name]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", name)
	}
	return content, SourceBundled, nil
}

// Load returns the asset content, following the override chain.
func (s *Store) Load(name string) (string, error) {
	content, _, err := s.Resolve(name)
	return content, err
}

func readOverride(dir, name string) (string, bool, error) {
	if dir == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read prompt %q: %w", name, err)
	}
	return string(data), true, nil
}

// Task is the minimal task data needed for prompt rendering.
type Task struct {
	ID       string
	Title    string
	Category string
	Start    string
	End      string
	Status   string
	Deps     string
}

// Data holds prompt template variables.
type Data struct {
	NextID      string
	Categories  string
	AnchorNames string
	Titles      string
	Hint        string
	Task        Task
	Now         string
}

// NewDraftData builds draft prompt data with a UTC timestamp formatted
// in RFC3339. Catalog context is pre-joined so the templates stay flat.
func NewDraftData(nextID string, categories, anchors, titles []string, hint string, now time.Time) Data {
	return Data{
		NextID:      nextID,
		Categories:  strings.Join(categories, ", "),
		AnchorNames: strings.Join(anchors, ", "),
		Titles:      bulletList(titles),
		Hint:        strings.TrimSpace(hint),
		Now:         now.UTC().Format(time.RFC3339),
	}
}

// NewChecklistData builds checklist prompt data for one task.
func NewChecklistData(task Task, now time.Time) Data {
	return Data{
		Task: task,
		Now:  now.UTC().Format(time.RFC3339),
	}
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

// Renderer renders templates with strict missing-key behavior.
type Renderer struct {
	store *Store
}

// NewRenderer creates a prompt renderer.
func NewRenderer(store *Store) *Renderer {
	return &Renderer{store: store}
}

// Store returns the underlying prompt store.
func (r *Renderer) Store() *Store {
	if r == nil {
		return nil
	}
	return r.store
}

// Render loads and renders a prompt template with required variable checks.
func (r *Renderer) Render(name string, data Data) (string, error) {
	if r == nil || r.store == nil {
		return "", errors.New("prompt renderer is not initialized")
	}
	if err := validateRequired(name, data); err != nil {
		return "", err
	}
	raw, err := r.store.Load(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse prompt %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return buf.String(), nil
}

type requiredVar int

const (
	reqNextID requiredVar = iota
	reqNow
	reqTaskID
	reqTaskTitle
)

var requiredByPrompt = map[string][]requiredVar{
	DraftPrompt:     {reqNextID, reqNow},
	ChecklistPrompt: {reqTaskID, reqTaskTitle, reqNow},
}

func validateRequired(name string, data Data) error {
	reqs, ok := requiredByPrompt[name]
	if !ok {
		return fmt.Errorf("unknown prompt %q", name)
	}
	for _, req := range reqs {
		switch req {
		case reqNextID:
			if data.NextID == "" {
				return fmt.Errorf("prompt %q requires NextID", name)
			}
		case reqNow:
			if data.Now == "" {
				return fmt.Errorf("prompt %q requires Now", name)
			}
		case reqTaskID:
			if data.Task.ID == "" {
				return fmt.Errorf("prompt %q requires Task.ID", name)
			}
		case reqTaskTitle:
			if data.Task.Title == "" {
				return fmt.Errorf("prompt %q requires Task.Title", name)
			}
		default:
			return fmt.Errorf("prompt %q has unsupported requirement", name)
		}
	}
	return nil
}
