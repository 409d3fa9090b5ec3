package preset

import (
	"testing"
)

func TestNameIsDeterministic(t *testing.T) {
	a := Name("comp", 10, []string{"220", "221"})
	b := Name("comp", 10, []string{"220", "221"})
	if a != b {
		t.Errorf("same selection hashed to %q and %q", a, b)
	}
	if len(a) != 10 {
		t.Errorf("name %q is %d characters, want 10", a, len(a))
	}
}

func TestNameIgnoresCodeOrder(t *testing.T) {
	a := Name("comp", 10, []string{"221", "220"})
	b := Name("comp", 10, []string{"220", "221"})
	if a != b {
		t.Errorf("reordered codes hashed to %q and %q", a, b)
	}
}

func TestNameSeparatesSelections(t *testing.T) {
	base := Name("comp", 10, []string{"220"})
	for _, other := range []string{
		Name("jmc", 10, []string{"220"}),
		Name("comp", 9, []string{"220"}),
		Name("comp", 10, []string{"221"}),
		Name("comp", 10, nil),
	} {
		if other == base {
			t.Errorf("distinct selection collided on %q", base)
		}
	}
}

func TestSaveThenFindRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	saved := &Preset{Course: "comp", YearOfEntry: 10, Ignored: []string{"221", "245"}}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Name == "" {
		t.Fatal("Save did not assign a name")
	}

	found, err := store.Find(saved.Name)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found == nil {
		t.Fatal("Find returned nil for a saved preset")
	}
	if found.Course != "comp" || found.YearOfEntry != 10 {
		t.Errorf("found %q year %d", found.Course, found.YearOfEntry)
	}
	if len(found.Ignored) != 2 || found.Ignored[0] != "221" || found.Ignored[1] != "245" {
		t.Errorf("found ignored codes %v", found.Ignored)
	}
}

func TestFindUnknownNameIsAbsent(t *testing.T) {
	store := NewStore(t.TempDir())

	p, err := store.Find("0123456789")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if p != nil {
		t.Errorf("Find returned %+v for an unknown name", p)
	}
}

func TestFindRejectsMalformedNames(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, name := range []string{"", "short", "0123456789abcdef", "../escape00", "0123ABC789"} {
		p, err := store.Find(name)
		if err != nil {
			t.Errorf("Find(%q): %v", name, err)
		}
		if p != nil {
			t.Errorf("Find(%q) = %+v, want nil", name, p)
		}
	}
}

func TestSaveSameSelectionTwice(t *testing.T) {
	store := NewStore(t.TempDir())

	first := &Preset{Course: "jmc", YearOfEntry: 9, Ignored: []string{"261"}}
	if err := store.Save(first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second := &Preset{Course: "jmc", YearOfEntry: 9, Ignored: []string{"261"}}
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if first.Name != second.Name {
		t.Errorf("same selection saved as %q and %q", first.Name, second.Name)
	}
}
