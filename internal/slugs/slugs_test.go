package slugs

import "testing"

func TestAnchorSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"On the Origin of Species", "on-the-origin-of-species"},
		{"A:B", "a-b"},
		{"A__B", "a-b"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"!!!", ""},
		{"Привет мир", "привет-мир"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := AnchorSlug(tt.in); got != tt.want {
				t.Fatalf("AnchorSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestComponentSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Darwin", "darwin"},
		{"UPPER CASE", "upper-case"},
		{"Special: Characters!", "special-characters"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ComponentSlug(tt.in); got != tt.want {
				t.Fatalf("ComponentSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRefName(t *testing.T) {
	set := func(names ...string) func(string) bool {
		m := make(map[string]bool)
		for _, n := range names {
			m[n] = true
		}
		return func(s string) bool { return m[s] }
	}

	tests := []struct {
		name  string
		text  string
		taken func(string) bool
		want  string
	}{
		{name: "plain", text: "On the Origin of Species", want: "on-the-origin-of-species"},
		{name: "cut at word boundary", text: "A very long title that goes on and on forever", want: "a-very-long-title-that-goes-on"},
		{name: "nothing sluggable", text: "!!!", want: "ref"},
		{name: "empty", text: "", want: "ref"},
		{name: "taken once", text: "Origin", taken: set("origin"), want: "origin-2"},
		{name: "taken twice", text: "Origin", taken: set("origin", "origin-2"), want: "origin-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RefName(tt.text, tt.taken); got != tt.want {
				t.Fatalf("RefName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
