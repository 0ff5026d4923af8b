package sequencer

import (
	"fmt"
	"strings"

	"go-arrange/widgets"
)

// InputMode for text input
type InputMode int

const (
	InputNone InputMode = iota
	InputNewProject
	InputRenameProject
	InputRenameSave
	InputSaveAs
)

// Browser lists projects and their saves, and saves, loads, renames and
// deletes them.
type Browser struct {
	library *Library
	current func() *Project

	projects []string
	saves    []SaveInfo

	projectIdx int
	saveIdx    int
	column     int // 0=projects, 1=saves

	inputMode   InputMode
	inputBuffer string

	confirmMode   bool
	confirmMsg    string
	confirmAction func() error

	status string

	// OnLoad receives a project loaded from disk
	OnLoad func(p *Project)
}

// NewBrowser creates a browser over a library. current returns the
// project that is saved by "s".
func NewBrowser(lib *Library, current func() *Project) *Browser {
	b := &Browser{library: lib, current: current}
	b.Refresh()
	return b
}

func (b *Browser) Name() string { return "projects" }

// IsInputMode returns true if the browser is taking text input
func (b *Browser) IsInputMode() bool {
	return b.inputMode != InputNone || b.confirmMode
}

// Refresh reloads project and save lists
func (b *Browser) Refresh() error {
	projects, err := b.library.ListProjects()
	if err != nil {
		return err
	}
	b.projects = projects
	if b.projectIdx >= len(b.projects) {
		b.projectIdx = max(0, len(b.projects)-1)
	}

	b.saves = nil
	if len(b.projects) > 0 {
		saves, err := b.library.ListSaves(b.projects[b.projectIdx])
		if err != nil {
			return err
		}
		b.saves = saves
	}
	if b.saveIdx >= len(b.saves) {
		b.saveIdx = max(0, len(b.saves)-1)
	}
	return nil
}

// Projects returns the cached project names
func (b *Browser) Projects() []string { return b.projects }

// Saves returns the cached saves of the selected project
func (b *Browser) Saves() []SaveInfo { return b.saves }

// SelectProject moves the project cursor to a name
func (b *Browser) SelectProject(name string) error {
	for i, p := range b.projects {
		if p == name {
			b.projectIdx = i
			b.saveIdx = 0
			return b.Refresh()
		}
	}
	return fmt.Errorf("project %s not found", name)
}

// SaveCurrent writes a new save of the current project
func (b *Browser) SaveCurrent(saveName string) (SaveInfo, error) {
	p := b.current()
	if p == nil {
		return SaveInfo{}, fmt.Errorf("no project open")
	}
	info, err := b.library.Save(p, saveName)
	if err != nil {
		return SaveInfo{}, err
	}
	b.status = "saved " + info.Filename
	if err := b.Refresh(); err != nil {
		return info, err
	}
	return info, b.SelectProject(p.Name)
}

// LoadSelected loads the selected save, or the newest one of the
// selected project when the projects column is active.
func (b *Browser) LoadSelected() error {
	if len(b.projects) == 0 {
		return nil
	}
	name := b.projects[b.projectIdx]
	filename := ""
	if b.column == 1 && len(b.saves) > 0 {
		filename = b.saves[b.saveIdx].Filename
	}
	p, err := b.library.Load(name, filename)
	if err != nil {
		return err
	}
	b.status = "loaded " + name
	if b.OnLoad != nil {
		b.OnLoad(p)
	}
	return nil
}

func (b *Browser) HandleKey(key string) error {
	if b.confirmMode {
		switch key {
		case "y", "Y":
			action := b.confirmAction
			b.confirmMode = false
			b.confirmAction = nil
			if action != nil {
				if err := action(); err != nil {
					return err
				}
			}
			return b.Refresh()
		case "n", "N", "esc", "q":
			b.confirmMode = false
			b.confirmAction = nil
		}
		return nil
	}

	if b.inputMode != InputNone {
		switch key {
		case "enter":
			return b.commitInput()
		case "esc":
			b.inputMode = InputNone
			b.inputBuffer = ""
		case "backspace":
			if len(b.inputBuffer) > 0 {
				b.inputBuffer = b.inputBuffer[:len(b.inputBuffer)-1]
			}
		case "space":
			b.inputBuffer += " "
		default:
			if len(key) == 1 && key[0] >= 32 && key[0] < 127 && key != "/" && key != "\\" {
				b.inputBuffer += key
			}
		}
		return nil
	}

	switch key {
	case "h", "left":
		b.column = 0
	case "l", "right":
		if len(b.projects) > 0 {
			b.column = 1
		}
	case "j", "down":
		if b.column == 0 {
			if b.projectIdx < len(b.projects)-1 {
				b.projectIdx++
				b.saveIdx = 0
				return b.Refresh()
			}
		} else if b.saveIdx < len(b.saves)-1 {
			b.saveIdx++
		}
	case "k", "up":
		if b.column == 0 {
			if b.projectIdx > 0 {
				b.projectIdx--
				b.saveIdx = 0
				return b.Refresh()
			}
		} else if b.saveIdx > 0 {
			b.saveIdx--
		}
	case "enter":
		return b.LoadSelected()
	case "s":
		_, err := b.SaveCurrent("")
		return err
	case "S":
		b.inputMode = InputSaveAs
		b.inputBuffer = ""
	case "n":
		b.inputMode = InputNewProject
		b.inputBuffer = ""
	case "r":
		if b.column == 0 && len(b.projects) > 0 {
			b.inputMode = InputRenameProject
			b.inputBuffer = b.projects[b.projectIdx]
		} else if b.column == 1 && len(b.saves) > 0 {
			b.inputMode = InputRenameSave
			b.inputBuffer = b.saves[b.saveIdx].Name
		}
	case "d":
		b.deleteSelected()
	}
	return nil
}

func (b *Browser) commitInput() error {
	name := strings.TrimSpace(b.inputBuffer)
	mode := b.inputMode
	b.inputMode = InputNone
	b.inputBuffer = ""

	switch mode {
	case InputNewProject:
		if name == "" {
			return nil
		}
		if err := b.library.CreateProject(name); err != nil {
			return err
		}
		if p := b.current(); p != nil {
			p.Name = name
		}
		if err := b.Refresh(); err != nil {
			return err
		}
		return b.SelectProject(name)
	case InputRenameProject:
		if name == "" || len(b.projects) == 0 {
			return nil
		}
		old := b.projects[b.projectIdx]
		if err := b.library.RenameProject(old, name); err != nil {
			return err
		}
		if p := b.current(); p != nil && p.Name == old {
			p.Name = name
		}
	case InputRenameSave:
		// an empty name drops the label
		if len(b.saves) > 0 {
			if _, err := b.library.RenameSave(b.projects[b.projectIdx], b.saves[b.saveIdx].Filename, name); err != nil {
				return err
			}
		}
	case InputSaveAs:
		_, err := b.SaveCurrent(name)
		return err
	}
	return b.Refresh()
}

func (b *Browser) deleteSelected() {
	if b.column == 0 {
		if len(b.projects) == 0 {
			return
		}
		name := b.projects[b.projectIdx]
		b.confirmMsg = fmt.Sprintf("Delete project '%s' and all saves?", name)
		b.confirmAction = func() error { return b.library.DeleteProject(name) }
		b.confirmMode = true
		return
	}
	if len(b.saves) == 0 {
		return
	}
	project, save := b.projects[b.projectIdx], b.saves[b.saveIdx]
	b.confirmMsg = fmt.Sprintf("Delete save '%s'?", save.Timestamp.Format("2006-01-02 15:04:05"))
	b.confirmAction = func() error { return b.library.DeleteSave(project, save.Filename) }
	b.confirmMode = true
}

const rule = "─────────────────────────────────────────────────\n"

func (b *Browser) View() string {
	var out strings.Builder

	projectName := "(none)"
	if p := b.current(); p != nil && p.Name != "" {
		projectName = p.Name
	}
	out.WriteString(fmt.Sprintf("PROJECTS  Open: %s\n\n", projectName))

	if b.confirmMode {
		out.WriteString(rule)
		out.WriteString(fmt.Sprintf("\n%s\n\n", b.confirmMsg))
		out.WriteString("  [y] Yes    [n] No\n\n")
		out.WriteString(rule)
		return out.String()
	}

	if b.inputMode != InputNone {
		var label string
		switch b.inputMode {
		case InputNewProject:
			label = "New project name"
		case InputRenameProject:
			label = "Rename project to"
		case InputRenameSave:
			label = "Name this save"
		case InputSaveAs:
			label = "Save as"
		}
		out.WriteString(rule)
		out.WriteString(fmt.Sprintf("\n%s: %s_\n", label, b.inputBuffer))
		out.WriteString("\n[enter] confirm  [esc] cancel\n\n")
		out.WriteString(rule)
		return out.String()
	}

	out.WriteString("Projects                    Saves\n")
	out.WriteString(rule)

	maxRows := 12
	rows := max(min(maxRows, max(1, len(b.projects))), min(maxRows, max(1, len(b.saves))))
	for row := 0; row < rows; row++ {
		if row < len(b.projects) {
			out.WriteString(fmt.Sprintf("%s%-20s", cursorMark(row == b.projectIdx, b.column == 0), truncate(b.projects[row], 20)))
		} else {
			out.WriteString(strings.Repeat(" ", 22))
		}
		out.WriteString("    ")

		if row < len(b.saves) {
			save := b.saves[row]
			display := save.Timestamp.Format("01-02 15:04")
			if save.Name != "" {
				display += " " + save.Name
			}
			out.WriteString(cursorMark(row == b.saveIdx, b.column == 1) + truncate(display, 24))
		}
		out.WriteString("\n")
	}
	if len(b.projects) == 0 {
		out.WriteString("  (no projects yet)\n")
	}
	if b.status != "" {
		out.WriteString("\n" + b.status + "\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "switch columns"},
			{Key: "j / k", Desc: "navigate list"},
			{Key: "enter", Desc: "load selected"},
			{Key: "s / S", Desc: "save / save as"},
			{Key: "n", Desc: "new project"},
			{Key: "r", Desc: "rename"},
			{Key: "d", Desc: "delete"},
		}},
	}))
	return out.String()
}

func cursorMark(selected, focused bool) string {
	switch {
	case selected && focused:
		return "> "
	case selected:
		return "* "
	}
	return "  "
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
