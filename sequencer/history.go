package sequencer

import (
	"errors"
	"fmt"
)

// MaxUndo caps the undo stack
const MaxUndo = 100

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is one reversible edit. Commands keep only what they need to
// reverse themselves, never a copy of the whole document.
type Command interface {
	Do(p *Project) error
	Undo(p *Project) error
	Name() string
}

// History is the command log of a project
type History struct {
	undo []Command
	redo []Command
}

func (h *History) push(cmd Command) {
	h.undo = append(h.undo, cmd)
	if len(h.undo) > MaxUndo {
		h.undo = h.undo[len(h.undo)-MaxUndo:]
	}
	h.redo = nil
}

// CanUndo reports whether there is anything to undo
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether there is anything to redo
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoName is the name of the command Undo would reverse
func (h *History) UndoName() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Name()
}

// RedoName is the name of the command Redo would repeat
func (h *History) RedoName() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Name()
}

// Len is the depth of the undo stack
func (h *History) Len() int { return len(h.undo) }

// Clear drops both stacks
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// Batch runs commands as a single undo step. If one fails, the ones
// already applied are rolled back.
type Batch struct {
	Label    string
	Commands []Command
}

func (b *Batch) Name() string { return b.Label }

func (b *Batch) Do(p *Project) error {
	for i, cmd := range b.Commands {
		if err := cmd.Do(p); err != nil {
			errs := []error{err}
			for j := i - 1; j >= 0; j-- {
				if uerr := b.Commands[j].Undo(p); uerr != nil {
					errs = append(errs, fmt.Errorf("rollback %s: %w", b.Commands[j].Name(), uerr))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

func (b *Batch) Undo(p *Project) error {
	for i := len(b.Commands) - 1; i >= 0; i-- {
		if err := b.Commands[i].Undo(p); err != nil {
			return err
		}
	}
	return nil
}
