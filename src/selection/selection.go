// Package selection tracks which expense ids are marked for bulk operations.
package selection

import (
	"fmt"
	"sort"
)

// Set is a membership-only set of ids. The zero value is empty and ready to
// use. It is owned by a single view and is not safe for concurrent use.
type Set struct {
	ids map[string]struct{}
}

func New(ids ...string) *Set {
	s := &Set{}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Set) add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Toggle removes id if it is selected and adds it otherwise.
func (s *Set) Toggle(id string) {
	if s.IsSelected(id) {
		delete(s.ids, id)
		return
	}
	s.add(id)
}

// SelectAll clears the selection when it already has as many members as
// allIDs, and otherwise replaces it with exactly allIDs.
func (s *Set) SelectAll(allIDs []string) {
	if s.Size() == len(allIDs) {
		s.Clear()
		return
	}
	s.ids = make(map[string]struct{}, len(allIDs))
	for _, id := range allIDs {
		s.ids[id] = struct{}{}
	}
}

func (s *Set) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Size() int {
	return len(s.ids)
}

func (s *Set) Remove(id string) {
	delete(s.ids, id)
}

func (s *Set) Clear() {
	s.ids = nil
}

// Retain drops every selected id that is not in ids.
func (s *Set) Retain(ids []string) {
	if len(s.ids) == 0 {
		return
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// IDs returns the selected ids in sorted order.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Label renders the selection summary shown above the list.
func (s *Set) Label(total int) string {
	if s.Size() == 0 {
		return "Select all"
	}
	return fmt.Sprintf("Selected %d of %d", s.Size(), total)
}
