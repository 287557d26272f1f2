package docsystem

import (
	"slices"
	"strings"
)

// FolderCollection is a flat snapshot of every folder with hierarchy queries.
// It is built once per load and never mutated afterwards.
type FolderCollection struct {
	folders  []Folder
	byID     map[string]int
	children map[string][]int // parent id -> indexes, "" for root
}

// NewFolderCollection indexes folders by id and by parent.
func NewFolderCollection(folders []Folder) *FolderCollection {
	c := &FolderCollection{
		folders:  slices.Clone(folders),
		byID:     make(map[string]int, len(folders)),
		children: make(map[string][]int),
	}

	// First pass: index by id
	for i, f := range c.folders {
		c.byID[f.ID] = i
	}

	// Second pass: connect children to parents. Orphans (parent missing) are
	// treated as roots so they stay reachable.
	for i, f := range c.folders {
		key := ""
		if f.ParentID != nil {
			if _, ok := c.byID[*f.ParentID]; ok {
				key = *f.ParentID
			}
		}
		c.children[key] = append(c.children[key], i)
	}

	return c
}

// All returns every folder in repository order.
func (c *FolderCollection) All() []Folder {
	return slices.Clone(c.folders)
}

// Len returns the number of folders.
func (c *FolderCollection) Len() int {
	return len(c.folders)
}

// Get returns the folder with id.
func (c *FolderCollection) Get(id string) (Folder, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Folder{}, false
	}
	return c.folders[i], true
}

// Roots returns root-level folders.
func (c *FolderCollection) Roots() []Folder {
	return c.pick(c.children[""])
}

// ChildrenOf returns the immediate subfolders of id.
func (c *FolderCollection) ChildrenOf(id string) []Folder {
	return c.pick(c.children[id])
}

// DescendantsOf returns every folder below id, depth first.
func (c *FolderCollection) DescendantsOf(id string) []Folder {
	var out []Folder
	seen := map[string]bool{id: true}
	var walk func(parent string)
	walk = func(parent string) {
		for _, i := range c.children[parent] {
			f := c.folders[i]
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			out = append(out, f)
			walk(f.ID)
		}
	}
	walk(id)
	return out
}

// Favorites returns folders flagged as favorite.
func (c *FolderCollection) Favorites() []Folder {
	out := make([]Folder, 0)
	for _, f := range c.folders {
		if f.IsFavorite {
			out = append(out, f)
		}
	}
	return out
}

// SortedByName returns a new collection ordered by case-insensitive name.
func (c *FolderCollection) SortedByName() *FolderCollection {
	sorted := slices.Clone(c.folders)
	SortFoldersByName(sorted)
	return NewFolderCollection(sorted)
}

// SortFoldersByName orders folders by case-insensitive name, stable.
func SortFoldersByName(folders []Folder) {
	slices.SortStableFunc(folders, func(a, b Folder) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

func (c *FolderCollection) pick(idx []int) []Folder {
	out := make([]Folder, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.folders[i])
	}
	return out
}
