package usecase

import "sync"

// SectionMode is the visible part of a section.
type SectionMode string

const (
	ModeList    SectionMode = "list"
	ModeAdding  SectionMode = "adding"
	ModeEditing SectionMode = "editing"
)

// Selection is exactly one of list, adding, or editing one record.
type Selection struct {
	Mode      SectionMode `json:"mode"`
	EditingID string      `json:"editingId,omitempty"`
}

// ListSelection is the initial selection.
func ListSelection() Selection { return Selection{Mode: ModeList} }

// Primary toggles list and adding. From editing it returns to the list.
func (s Selection) Primary() Selection {
	if s.Mode == ModeList {
		return Selection{Mode: ModeAdding}
	}
	return ListSelection()
}

// Edit selects record id regardless of the current selection.
func (s Selection) Edit(id string) Selection {
	return Selection{Mode: ModeEditing, EditingID: id}
}

// Close returns to the list.
func (s Selection) Close() Selection {
	return ListSelection()
}

// SectionCoordinator decides whether the list, the add form or an edit form
// is visible.
type SectionCoordinator struct {
	mu     sync.Mutex
	entity string
	sel    Selection
}

// NewSectionCoordinator starts in list mode. entity is used for labels.
func NewSectionCoordinator(entity string) *SectionCoordinator {
	return &SectionCoordinator{entity: entity, sel: ListSelection()}
}

// PrimaryAction applies the primary button.
func (c *SectionCoordinator) PrimaryAction() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = c.sel.Primary()
	return c.sel
}

// Edit switches to editing id.
func (c *SectionCoordinator) Edit(id string) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = c.sel.Edit(id)
	return c.sel
}

// Close returns to the list.
func (c *SectionCoordinator) Close() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = c.sel.Close()
	return c.sel
}

// Selection returns the current selection.
func (c *SectionCoordinator) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// PrimaryLabel is the caption of the primary button for the current selection.
func (c *SectionCoordinator) PrimaryLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sel.Mode == ModeList {
		return "Add New " + c.entity
	}
	return "Show " + c.entity + "s List"
}
