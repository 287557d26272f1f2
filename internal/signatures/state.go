package signatures

import (
	"maps"
	"slices"
	"strings"

	"scandeck/internal/domain/models"
)

// SortBy orders the signature list. The default signature always comes
// first whatever the order.
type SortBy string

const (
	SortLabel       SortBy = "label"
	SortCreatedDesc SortBy = "created_desc"
	SortCreatedAsc  SortBy = "created_asc"
)

// DefaultSortBy shows the newest signatures first
const DefaultSortBy = SortCreatedDesc

// ParseSortBy returns the sort named s, or false if unknown.
func ParseSortBy(s string) (SortBy, bool) {
	switch SortBy(s) {
	case SortLabel, SortCreatedDesc, SortCreatedAsc:
		return SortBy(s), true
	}
	return "", false
}

func (s SortBy) compare(a, b models.Signature) int {
	switch s {
	case SortLabel:
		return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
	case SortCreatedAsc:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return b.CreatedAt.Compare(a.CreatedAt)
	}
}

// sortSignatures returns a stably sorted copy with default signatures first
func sortSignatures(sigs []models.Signature, s SortBy) []models.Signature {
	out := slices.Clone(sigs)
	slices.SortStableFunc(out, func(a, b models.Signature) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		return s.compare(a, b)
	})
	return out
}

// State is an immutable snapshot of the saved signatures screen
type State struct {
	Signatures  []models.Signature
	SortBy      SortBy
	SearchQuery string

	IsLoading     bool
	IsRefreshing  bool
	IsInitialized bool
	Error         string

	SelectedIDs     map[string]bool
	IsSelectionMode bool

	// Images caches decoded image bytes by signature id
	Images map[string][]byte

	// StorageSize is a display string such as "12 kB"
	StorageSize string
}

func newState() State {
	return State{
		SortBy:      DefaultSortBy,
		SelectedIDs: map[string]bool{},
		Images:      map[string][]byte{},
	}
}

func (s State) clone() State {
	out := s
	out.Signatures = slices.Clone(s.Signatures)
	out.SelectedIDs = maps.Clone(s.SelectedIDs)
	out.Images = maps.Clone(s.Images)
	return out
}

// FilteredSignatures applies the search query to labels, keeping order.
func (s State) FilteredSignatures() []models.Signature {
	q := strings.ToLower(strings.TrimSpace(s.SearchQuery))
	if q == "" {
		return slices.Clone(s.Signatures)
	}
	out := make([]models.Signature, 0, len(s.Signatures))
	for _, sig := range s.Signatures {
		if strings.Contains(strings.ToLower(sig.Label), q) {
			out = append(out, sig)
		}
	}
	return out
}

// DefaultSignature returns the default signature, if one is set.
func (s State) DefaultSignature() (models.Signature, bool) {
	for _, sig := range s.Signatures {
		if sig.IsDefault {
			return sig, true
		}
	}
	return models.Signature{}, false
}

func (s State) SelectedCount() int { return len(s.SelectedIDs) }
func (s State) HasSelection() bool { return len(s.SelectedIDs) > 0 }

// AllSelected reports whether every visible signature is selected.
func (s State) AllSelected() bool {
	sigs := s.FilteredSignatures()
	if len(sigs) == 0 {
		return false
	}
	for _, sig := range sigs {
		if !s.SelectedIDs[sig.ID] {
			return false
		}
	}
	return true
}

// selected returns selected ids in list order
func (s State) selected() []string {
	out := make([]string, 0, len(s.SelectedIDs))
	for _, sig := range s.Signatures {
		if s.SelectedIDs[sig.ID] {
			out = append(out, sig.ID)
		}
	}
	rest := make([]string, 0)
	for id := range s.SelectedIDs {
		if !slices.Contains(out, id) {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
