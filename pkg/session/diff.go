package session

// SessionDiff describes what changed between two revisions of a document.
// The play command uses it to decide whether a live reload can keep the
// current transport position.
type SessionDiff struct {
	// DurationChanged is true when the total session length changed.
	DurationChanged bool
	// NewDuration is the new total length when DurationChanged is set.
	NewDuration float64

	// PromptsChanged is true when any prompt was added, removed, or edited.
	PromptsChanged bool
	// PromptChanges holds per-prompt diffs.
	PromptChanges []ItemDiff

	// AmbientsChanged is true when any ambient bed was added, removed, or edited.
	AmbientsChanged bool
	// AmbientChanges holds per-ambient diffs.
	AmbientChanges []ItemDiff

	// BinauralChanged is true when the binaural track was added, removed, or
	// reconfigured.
	BinauralChanged bool
}

// ItemDiff describes what changed for a single timeline item between two
// document revisions. Items are correlated by ID.
type ItemDiff struct {
	ID      string
	Edited  bool
	Added   bool
	Removed bool
}

// Empty reports whether the diff records no changes.
func (d SessionDiff) Empty() bool {
	return !d.DurationChanged && !d.PromptsChanged && !d.AmbientsChanged && !d.BinauralChanged
}

// Diff compares old and new document revisions and returns what changed.
// Editor-only fields (name, description, sections) are ignored.
func Diff(old, new *Session) SessionDiff {
	d := SessionDiff{}

	if old.Duration != new.Duration {
		d.DurationChanged = true
		d.NewDuration = new.Duration
	}

	d.PromptChanges = diffPrompts(old.Prompts, new.Prompts)
	d.PromptsChanged = len(d.PromptChanges) > 0

	d.AmbientChanges = diffAmbients(old.Ambients, new.Ambients)
	d.AmbientsChanged = len(d.AmbientChanges) > 0

	switch {
	case old.Binaural == nil && new.Binaural == nil:
	case old.Binaural == nil || new.Binaural == nil:
		d.BinauralChanged = true
	default:
		d.BinauralChanged = *old.Binaural != *new.Binaural
	}

	return d
}

func diffPrompts(old, new []PromptItem) []ItemDiff {
	oldByID := make(map[string]*PromptItem, len(old))
	for i := range old {
		oldByID[old[i].ID] = &old[i]
	}
	newByID := make(map[string]*PromptItem, len(new))
	for i := range new {
		newByID[new[i].ID] = &new[i]
	}

	var changes []ItemDiff
	for id, oldItem := range oldByID {
		newItem, exists := newByID[id]
		if !exists {
			changes = append(changes, ItemDiff{ID: id, Removed: true})
			continue
		}
		if *oldItem != *newItem {
			changes = append(changes, ItemDiff{ID: id, Edited: true})
		}
	}
	for id := range newByID {
		if _, exists := oldByID[id]; !exists {
			changes = append(changes, ItemDiff{ID: id, Added: true})
		}
	}
	return changes
}

func diffAmbients(old, new []AmbientItem) []ItemDiff {
	oldByID := make(map[string]*AmbientItem, len(old))
	for i := range old {
		oldByID[old[i].ID] = &old[i]
	}
	newByID := make(map[string]*AmbientItem, len(new))
	for i := range new {
		newByID[new[i].ID] = &new[i]
	}

	var changes []ItemDiff
	for id, oldItem := range oldByID {
		newItem, exists := newByID[id]
		if !exists {
			changes = append(changes, ItemDiff{ID: id, Removed: true})
			continue
		}
		if *oldItem != *newItem {
			changes = append(changes, ItemDiff{ID: id, Edited: true})
		}
	}
	for id := range newByID {
		if _, exists := oldByID[id]; !exists {
			changes = append(changes, ItemDiff{ID: id, Added: true})
		}
	}
	return changes
}
