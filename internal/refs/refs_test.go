package refs

import (
	"strings"
	"testing"

	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

func defaultLocator() *template.Locator {
	return template.NewLocator(templatedata.Defaults().Registry())
}

func TestScanCitationAttributes(t *testing.T) {
	tests := []struct {
		src       string
		wantName  string
		wantGroup string
	}{
		{src: `<ref name="a" />`, wantName: "a"},
		{src: `<ref name='a'/>`, wantName: "a"},
		{src: `<ref name=a />`, wantName: "a"},
		{src: `<ref group="g" name="a" />`, wantName: "a", wantGroup: "g"},
		{src: `<ref name=a group='g'/>`, wantName: "a", wantGroup: "g"},
		{src: `<REF NAME = "a b" />`, wantName: "a b"},
		{src: `< ref name="a/b" / >`, wantName: "a/b"},
		{src: `<ref />`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s := Scan("x "+tt.src+" y", nil)
			if len(s.Citations) != 1 {
				t.Fatalf("citations = %d, want 1", len(s.Citations))
			}
			c := s.Citations[0]
			if c.Name != tt.wantName || c.Group != tt.wantGroup {
				t.Errorf("got name=%q group=%q, want name=%q group=%q", c.Name, c.Group, tt.wantName, tt.wantGroup)
			}
			if c.Span().Source != tt.src || c.Span().Start != 2 {
				t.Errorf("span = %+v", c.Span())
			}
			if len(s.References) != 0 {
				t.Errorf("self-closing tag scanned as reference")
			}
		})
	}
}

func TestScanReferences(t *testing.T) {
	text := "A<ref group=notes name=\"n1\">X < Y</ref>B<ref>multi\nline</ref><references />"
	s := Scan(text, nil)
	if len(s.References) != 2 {
		t.Fatalf("references = %d, want 2", len(s.References))
	}

	first := s.References[0]
	if first.Name != "n1" || first.Group != "notes" || first.Content != "X < Y" {
		t.Errorf("first = %+v", first)
	}
	if first.Kind() != KindRaw {
		t.Errorf("kind = %v, want raw", first.Kind())
	}
	second := s.References[1]
	if second.Name != "" || second.Content != "multi\nline" {
		t.Errorf("second = %+v", second)
	}
	if len(s.Citations) != 0 {
		t.Errorf("<references /> must not be a citation")
	}
}

func TestScanLinksCitations(t *testing.T) {
	text := `A<ref name="x">{{Cite web |url=u |title=T}}</ref> B<ref name="x" /> C<ref name='x'/> D<ref name="y" /> E<ref>anon</ref>`
	s := Scan(text, defaultLocator())

	if len(s.References) != 2 || len(s.Citations) != 3 {
		t.Fatalf("got %d references, %d citations", len(s.References), len(s.Citations))
	}
	r := s.References[0]
	if r.Kind() != KindTemplate || r.Template.Name != "Cite web" {
		t.Fatalf("template not located: %+v", r.Template)
	}
	if len(r.Citations) != 2 {
		t.Fatalf("linked citations = %d, want 2", len(r.Citations))
	}
	if len(s.References[1].Citations) != 0 {
		t.Errorf("unnamed reference must not link citations")
	}

	orphans := s.Orphans()
	if len(orphans) != 1 || orphans[0].Name != "y" {
		t.Errorf("orphans = %v", orphans)
	}
	if got, ok := s.ByName("x"); !ok || got != r {
		t.Errorf("ByName(x) failed")
	}
	if got, ok := s.Reference(2); !ok || got.Content != "anon" {
		t.Errorf("Reference(2) failed")
	}
	if _, ok := s.Reference(3); ok {
		t.Errorf("Reference(3) should be out of range")
	}
	if got, ok := s.ReferenceAt(3); !ok || got != r {
		t.Errorf("ReferenceAt(3) failed")
	}
}

func TestRoundTrip(t *testing.T) {
	docs := []string{
		`<ref name="a">Text {{Cite book|title=On the Origin of Species|first=Charles|last=Darwin}}</ref>`,
		"Intro.< ref name = origin >{{cite web\r\n| url = http://example.org\r\n| title = [[A|B]]\r\n}}< / ref > more<ref name=origin/>",
		`<ref group="n">Plain text with {{Other|x}} inside</ref>`,
	}
	for _, doc := range docs {
		s := Scan(doc, defaultLocator())
		if len(s.References) != 1 {
			t.Fatalf("%q: references = %d", doc, len(s.References))
		}
		for _, r := range s.References {
			if r.Modified() {
				t.Errorf("fresh reference reported modified")
			}
			if r.String() != r.Span().Source {
				t.Errorf("round trip:\n got %q\nwant %q", r.String(), r.Span().Source)
			}
		}
		for _, c := range s.Citations {
			if c.String() != c.Span().Source {
				t.Errorf("citation round trip: got %q", c.String())
			}
		}
	}
}

func TestDarwinScenario(t *testing.T) {
	doc := `<ref name="a">Text {{Cite book|title=On the Origin of Species|first=Charles|last=Darwin}}</ref>`
	s := Scan(doc, defaultLocator())
	if len(s.References) != 1 {
		t.Fatalf("references = %d", len(s.References))
	}
	r := s.References[0]
	if r.Name != "a" || r.Template == nil || r.Template.Name != "Cite book" {
		t.Fatalf("parsed wrong: name=%q template=%v", r.Name, r.Template)
	}
	want := map[string]string{"title": "On the Origin of Species", "first": "Charles", "last": "Darwin"}
	got := r.Template.Params.Map()
	if len(got) != len(want) {
		t.Fatalf("params = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}

	r.Template.Params.Set("first", "C.")
	at, ok := r.Span().Locate(doc)
	if !ok {
		t.Fatal("reference not located")
	}
	out := doc[:at] + r.String() + doc[at+len(r.Span().Source):]
	wantDoc := `<ref name="a">Text {{Cite book|title=On the Origin of Species|first=C.|last=Darwin}}</ref>`
	if out != wantDoc {
		t.Fatalf("serialized:\n got %q\nwant %q", out, wantDoc)
	}
}

func TestUnregisteredSurvivesEdit(t *testing.T) {
	doc := `<ref>{{Cite web |url=u |unknownparam=foo}}</ref>`
	r := Scan(doc, defaultLocator()).References[0]
	r.Template.Params.Set("url", "v")
	if got := r.String(); !strings.Contains(got, "|unknownparam=foo") {
		t.Fatalf("unregistered parameter lost: %q", got)
	}
}

func TestRenameRebuildsTags(t *testing.T) {
	doc := `<ref name=old group=g>body</ref> and <ref name=old group=g />`
	s := Scan(doc, nil)
	r := s.References[0]
	r.Name = "new"
	if got, want := r.String(), `<ref name="new" group="g">body</ref>`; got != want {
		t.Errorf("reference = %q, want %q", got, want)
	}
	c := r.Citations[0]
	c.Name = "new"
	if got, want := c.String(), `<ref name="new" group="g" />`; got != want {
		t.Errorf("citation = %q, want %q", got, want)
	}

	c.Name = `say "hi"`
	if got, want := c.String(), `<ref name='say "hi"' group="g" />`; got != want {
		t.Errorf("quoted citation = %q, want %q", got, want)
	}
}

func TestNewReference(t *testing.T) {
	tpl := template.New("Cite web", templatedata.FormatInline)
	tpl.Params.Set("url", "u")
	r := NewReference("n", "", "", tpl)
	if got, want := r.String(), `<ref name="n">{{Cite web |url=u}}</ref>`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	raw := NewReference("", "", "free text", nil)
	if raw.Kind() != KindRaw || raw.String() != "<ref>free text</ref>" {
		t.Errorf("raw = %q", raw.String())
	}
	if got := NewCitation("n", "").String(); got != `<ref name="n" />` {
		t.Errorf("citation = %q", got)
	}
}

func TestLabel(t *testing.T) {
	reg := templatedata.Defaults().Registry()
	loc := template.NewLocator(reg)
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "main parameter with link",
			doc:  `<ref>{{Cite book |last=Darwin |title=[[On the Origin of Species|Origin]]}}</ref>`,
			want: "Origin",
		},
		{
			name: "first parameter in canonical order",
			doc:  `<ref>{{Cite web |website=W |url=http://x}}</ref>`,
			want: "http://x",
		},
		{
			name: "raw content",
			doc:  "<ref>Just  some\ntext [[Page|shown]]</ref>",
			want: "Just some text shown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Scan(tt.doc, loc).References[0]
			if got := r.Label(reg); got != tt.want {
				t.Errorf("Label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocateNth(t *testing.T) {
	frag := `<ref name="x" />`
	text := "a" + frag + " b" + frag + " c" + frag + " d"
	third := strings.LastIndex(text, frag)

	if got := LocateNth(text, frag, 2); got != third {
		t.Fatalf("LocateNth(2) = %d, want %d", got, third)
	}
	if got := LocateNth(text, frag, 0); got != 1 {
		t.Fatalf("LocateNth(0) = %d, want 1", got)
	}
	if got := LocateNth(text, frag, 3); got != -1 {
		t.Fatalf("LocateNth(3) = %d, want -1", got)
	}
	if got := LocateNth(text, "", 0); got != -1 {
		t.Fatalf("empty fragment should not match")
	}

	s := Scan(text, nil)
	for i, c := range s.Citations {
		if c.Span().Ordinal != i {
			t.Errorf("citation %d ordinal = %d", i, c.Span().Ordinal)
		}
		if at, ok := c.Span().Locate(text); !ok || at != c.Span().Start {
			t.Errorf("citation %d located at %d, want %d", i, at, c.Span().Start)
		}
	}

	// After the first copy is removed, the third is the second.
	shifted := strings.Replace(text, frag, "", 1)
	if _, ok := s.Citations[2].Span().Locate(shifted); ok {
		t.Errorf("stale ordinal should not resolve")
	}
}

func TestOrdinalOverlapping(t *testing.T) {
	if got := Ordinal("aaaa", "aa", 2); got != 1 {
		t.Fatalf("Ordinal = %d, want 1", got)
	}
	if got := LocateNth("aaaa", "aa", 1); got != 2 {
		t.Fatalf("LocateNth = %d, want 2", got)
	}
}
