package selection

import (
	"reflect"
	"testing"
)

func TestToggle(t *testing.T) {
	s := &Set{}

	s.Toggle("1")
	if !s.IsSelected("1") {
		t.Fatal("expected 1 to be selected after first toggle")
	}

	s.Toggle("1")
	if s.IsSelected("1") {
		t.Fatal("expected 1 to be deselected after second toggle")
	}
	if s.Size() != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}
}

func TestSelectAll(t *testing.T) {
	all := []string{"1", "2", "3"}

	tests := []struct {
		name    string
		initial []string
		want    []string
	}{
		{name: "empty selection selects everything", initial: nil, want: []string{"1", "2", "3"}},
		{name: "partial selection selects everything", initial: []string{"2"}, want: []string{"1", "2", "3"}},
		{name: "full selection clears", initial: []string{"1", "2", "3"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.initial...)
			s.SelectAll(all)
			if got := s.IDs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("IDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectAll_ComparesSizeOnly(t *testing.T) {
	// Same size but different members still counts as "all selected".
	s := New("x", "y")
	s.SelectAll([]string{"1", "2"})
	if s.Size() != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}
}

func TestSelectAll_EmptyUniverse(t *testing.T) {
	s := &Set{}
	s.SelectAll(nil)
	if s.Size() != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}
}

func TestRemoveAndRetain(t *testing.T) {
	s := New("1", "2", "3")

	s.Remove("2")
	s.Remove("missing")
	if got, want := s.IDs(), []string{"1", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after Remove IDs() = %v, want %v", got, want)
	}

	s.Retain([]string{"3", "4"})
	if got, want := s.IDs(), []string{"3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after Retain IDs() = %v, want %v", got, want)
	}
}

func TestLabel(t *testing.T) {
	s := &Set{}
	if got := s.Label(5); got != "Select all" {
		t.Errorf("Label() = %q, want %q", got, "Select all")
	}
	s.Toggle("a")
	s.Toggle("b")
	if got := s.Label(5); got != "Selected 2 of 5" {
		t.Errorf("Label() = %q, want %q", got, "Selected 2 of 5")
	}
}
