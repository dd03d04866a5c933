package version

import "testing"

func mustParse(t *testing.T, s string) Version {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

func TestCompareAntisymmetryAndTransitivity(t *testing.T) {
	a := mustParse(t, "1.2.3")
	b := mustParse(t, "1.3.0")
	c := mustParse(t, "2.0.0")

	if Compare(a, b) != OrderLess {
		t.Fatalf("expected a < b")
	}
	if Compare(b, a) != OrderGreater {
		t.Fatalf("antisymmetry violated")
	}
	if Compare(a, a) != OrderEqual {
		t.Fatalf("expected a == a")
	}
	if Compare(a, b) == OrderLess && Compare(b, c) == OrderLess && Compare(a, c) != OrderLess {
		t.Fatalf("transitivity violated")
	}
}

func TestTagBeatsNoTag(t *testing.T) {
	untagged := mustParse(t, "1.0.0")
	tagged := mustParse(t, "1.0.0-beta")

	if Compare(tagged, untagged) != OrderGreater {
		t.Fatalf("expected tagged version to be greater than untagged at equal core version")
	}
	if Compare(untagged, untagged) != OrderEqual {
		t.Fatalf("two absent tags must compare equal")
	}
}

func TestSatisfiesOperators(t *testing.T) {
	candidate := mustParse(t, "2.1.0")

	cases := []struct {
		constraint string
		want       bool
	}{
		{"=2.1.0", true},
		{"=2.0.0", false},
		{">=2.0.0", true},
		{">=2.1.0", true},
		{">2.1.0", false},
		{"<3.0.0", true},
		{"<=2.1.0", true},
	}

	for _, tc := range cases {
		constraint := mustParse(t, tc.constraint)
		if got := Satisfies(candidate, constraint); got != tc.want {
			t.Errorf("Satisfies(%v, %q) = %v, want %v", candidate, tc.constraint, got, tc.want)
		}
	}
}

func TestParseQueryForms(t *testing.T) {
	if q, ok := ParseQuery("foo"); !ok || q.Name != "foo" || !q.Latest {
		t.Fatalf("bare name should parse as latest, got %+v ok=%v", q, ok)
	}
	if q, ok := ParseQuery("foo@latest"); !ok || !q.Latest {
		t.Fatalf("foo@latest should parse as latest, got %+v ok=%v", q, ok)
	}
	if q, ok := ParseQuery("foo@1.2.3"); !ok || q.Version.Condition != Equal {
		t.Fatalf("foo@1.2.3 should default to Equal, got %+v ok=%v", q, ok)
	}
	if q, ok := ParseQuery("foo@>=1.2.3"); !ok || q.Version.Condition != GreaterOrEqual {
		t.Fatalf("foo@>=1.2.3 should parse GreaterOrEqual, got %+v ok=%v", q, ok)
	}
	if _, ok := ParseQuery(""); ok {
		t.Fatalf("empty string must not parse")
	}
	if _, ok := ParseQuery("@1.2.3"); ok {
		t.Fatalf("missing name must not parse")
	}
}

func TestParseInvalidVersion(t *testing.T) {
	if _, err := Parse("not-a-version!"); err == nil {
		t.Fatalf("expected error for unparseable version")
	}
}
