package version

import "strings"

// Query is a parsed package reference: a bare name, or name@constraint.
type Query struct {
	Name    string
	Version Version // zero value (Condition == "") when Latest is true
	Latest  bool
}

// ParseQuery accepts "name", "name@version", "name@<op>version", and
// "name@latest". It returns false when s cannot be parsed, rather than
// an error, so a caller can render its own message for a bad query.
func ParseQuery(s string) (Query, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Query{}, false
	}

	name, rest, hasAt := strings.Cut(s, "@")
	if name == "" {
		return Query{}, false
	}

	if !hasAt {
		return Query{Name: name, Latest: true}, true
	}

	if rest == "latest" {
		return Query{Name: name, Latest: true}, true
	}

	v, err := Parse(rest)
	if err != nil {
		return Query{}, false
	}

	return Query{Name: name, Version: v}, true
}

// String renders the query as "name@latest" when Latest is set and as
// "name@<op>version" otherwise, with the operator omitted for Equal.
func (q Query) String() string {
	if q.Latest {
		return q.Name + "@latest"
	}
	return q.Name + "@" + q.Version.String()
}
