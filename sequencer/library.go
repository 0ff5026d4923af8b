package sequencer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"go-arrange/debug"
)

// Format is the on-disk encoding of a save
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const timestampLayout = "2006-01-02_15-04-05"

var ErrNoSaves = errors.New("no saves found")

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
	Format    Format
}

// Library keeps projects as folders of timestamped saves:
// <dir>/<project>/<timestamp>[_<name>].<json|yaml>
type Library struct {
	Dir    string
	Format Format

	now func() time.Time
}

// NewLibrary opens a library rooted at dir. An empty format means JSON.
func NewLibrary(dir string, format Format) *Library {
	if format == "" {
		format = FormatJSON
	}
	return &Library{Dir: dir, Format: format, now: time.Now}
}

// DefaultProjectsDir returns the projects directory path
func DefaultProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-arrange", "projects"), nil
}

// ProjectDir returns the path to a specific project
func (l *Library) ProjectDir(projectName string) string {
	return filepath.Join(l.Dir, projectName)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid project name %q", name)
	}
	return nil
}

// ListProjects returns all project folder names
func (l *Library) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	projects := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// parseSave splits 2024-01-15_14-30-00[_name].ext
func parseSave(filename string) (SaveInfo, bool) {
	ext := filepath.Ext(filename)
	var format Format
	switch ext {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ext)
	if len(base) < len(timestampLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if rest := base[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
		name = rest[1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts, Format: format}, true
}

// ListSaves returns timestamped saves for a project, newest first
func (l *Library) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(l.ProjectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	saves := []SaveInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSave(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.SliceStable(saves, func(i, j int) bool {
		if !saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Timestamp.After(saves[j].Timestamp)
		}
		return saves[i].Filename > saves[j].Filename
	})
	return saves, nil
}

// Marshal encodes a project
func Marshal(p *Project, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(p)
	case FormatJSON, "":
		return json.MarshalIndent(p, "", "  ")
	}
	return nil, fmt.Errorf("unknown save format %q", format)
}

// Unmarshal decodes and validates a project
func Unmarshal(data []byte, format Format) (*Project, error) {
	p := &Project{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, p)
	case FormatJSON, "":
		err = json.Unmarshal(data, p)
	default:
		return nil, fmt.Errorf("unknown save format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes a new timestamped save into the project's folder. The
// folder is the project name, "untitled" when it has none.
func (l *Library) Save(p *Project, saveName string) (SaveInfo, error) {
	if p.Name == "" {
		p.Name = "untitled"
	}
	if err := checkName(p.Name); err != nil {
		return SaveInfo{}, err
	}
	dir := l.ProjectDir(p.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return SaveInfo{}, err
	}

	data, err := Marshal(p, l.Format)
	if err != nil {
		return SaveInfo{}, err
	}

	filename := l.now().Format(timestampLayout)
	if saveName != "" {
		filename += "_" + sanitizeFilename(saveName)
	}
	filename += "." + string(l.Format)

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return SaveInfo{}, err
	}
	debug.Log("library", "saved %s/%s", p.Name, filename)
	info, _ := parseSave(filename)
	return info, nil
}

// Load reads a specific save, or the most recent if filename is empty
func (l *Library) Load(projectName, filename string) (*Project, error) {
	if filename == "" {
		saves, err := l.ListSaves(projectName)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fmt.Errorf("%w in project %s", ErrNoSaves, projectName)
		}
		filename = saves[0].Filename
	}

	info, ok := parseSave(filename)
	if !ok {
		return nil, fmt.Errorf("invalid save filename %q", filename)
	}
	data, err := os.ReadFile(filepath.Join(l.ProjectDir(projectName), filename))
	if err != nil {
		return nil, err
	}
	p, err := Unmarshal(data, info.Format)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", projectName, filename, err)
	}
	p.Name = projectName
	debug.Log("library", "loaded %s/%s tracks=%d", projectName, filename, len(p.Tracks))
	return p, nil
}

// CreateProject creates a new empty project folder
func (l *Library) CreateProject(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return os.MkdirAll(l.ProjectDir(name), 0755)
}

// DeleteSave deletes a specific save file
func (l *Library) DeleteSave(projectName, filename string) error {
	if _, ok := parseSave(filename); !ok {
		return fmt.Errorf("invalid save filename %q", filename)
	}
	return os.Remove(filepath.Join(l.ProjectDir(projectName), filename))
}

// RenameSave changes the name part of a save, keeping its timestamp, and
// returns the new filename.
func (l *Library) RenameSave(projectName, oldFilename, newName string) (string, error) {
	info, ok := parseSave(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := info.Timestamp.Format(timestampLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += filepath.Ext(oldFilename)

	dir := l.ProjectDir(projectName)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(name)
}

// DeleteProject deletes entire project folder
func (l *Library) DeleteProject(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return os.RemoveAll(l.ProjectDir(name))
}

// RenameProject renames a project folder
func (l *Library) RenameProject(oldName, newName string) error {
	if err := checkName(newName); err != nil {
		return err
	}
	newDir := l.ProjectDir(newName)
	if _, err := os.Stat(newDir); err == nil {
		return fmt.Errorf("project %s already exists", newName)
	}
	return os.Rename(l.ProjectDir(oldName), newDir)
}
