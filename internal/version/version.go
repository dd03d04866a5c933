// Package version implements LPM's version tuple and constraint operator.
// Parsing follows the regexp-plus-cache technique used by
// github.com/Masterminds/semver, but the ordering rules are bespoke: unlike
// standard semver, a tag does not lower a version's precedence relative to
// an untagged one — it raises it, and two absent tags compare equal. That
// incompatibility with semver's pre-release ordering is why this package
// does not delegate Compare to a semver library (see DESIGN.md).
package version

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// Condition is the constraint operator applied when checking whether a
// candidate Version satisfies another.
type Condition string

const (
	Less           Condition = "<"
	LessOrEqual    Condition = "<="
	Equal          Condition = "="
	GreaterOrEqual Condition = ">="
	Greater        Condition = ">"
)

func (c Condition) valid() bool {
	switch c {
	case Less, LessOrEqual, Equal, GreaterOrEqual, Greater:
		return true
	default:
		return false
	}
}

// Ordering is the result of comparing two versions.
type Ordering int

const (
	OrderLess Ordering = iota - 1
	OrderEqual
	OrderGreater
)

// Version is an immutable (major, minor, patch, tag) tuple plus the
// constraint operator under which it was parsed (default Equal).
type Version struct {
	Major     uint16
	Minor     uint16
	Patch     uint16
	Tag       string // "" means no tag
	Readable  string // the original textual form, e.g. "1.2.3-beta"
	Condition Condition
}

var versionRegex = regexp.MustCompile(
	`^(?:(<=|>=|<|>|=))?v?([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?(?:[-+]([0-9A-Za-z.-]+))?$`,
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]cacheEntry)
)

type cacheEntry struct {
	v   Version
	err error
}

// Parse parses a bare version string such as "1.2.3", "1.2.3-beta", or
// "<=1.2.3" into a Version. A leading operator, if present, sets Condition;
// otherwise Condition defaults to Equal.
func Parse(s string) (Version, error) {
	cacheMu.RLock()
	if e, ok := cache[s]; ok {
		cacheMu.RUnlock()
		return e.v, e.err
	}
	cacheMu.RUnlock()

	v, err := parse(s)

	cacheMu.Lock()
	cache[s] = cacheEntry{v: v, err: err}
	cacheMu.Unlock()

	return v, err
}

func parse(s string) (Version, error) {
	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.Errorf("invalid version string %q", s)
	}

	cond := Equal
	if m[1] != "" {
		cond = Condition(m[1])
	}

	major, err := parseSegment(m[2])
	if err != nil {
		return Version{}, errors.Wrapf(err, "invalid major segment in %q", s)
	}
	minor, err := parseSegment(m[3])
	if err != nil {
		return Version{}, errors.Wrapf(err, "invalid minor segment in %q", s)
	}
	patch, err := parseSegment(m[4])
	if err != nil {
		return Version{}, errors.Wrapf(err, "invalid patch segment in %q", s)
	}

	readable := s
	if m[1] != "" {
		readable = s[len(m[1]):]
	}

	return Version{
		Major:     major,
		Minor:     minor,
		Patch:     patch,
		Tag:       m[5],
		Readable:  readable,
		Condition: cond,
	}, nil
}

func parseSegment(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// Compare implements the total order from the data model: lexicographic
// over (major, minor, patch); when those are equal, the side carrying any
// tag is greater (tags are not standardized, so their contents are never
// compared against each other); two absent tags compare equal.
func Compare(a, b Version) Ordering {
	if o := compareUint(a.Major, b.Major); o != OrderEqual {
		return o
	}
	if o := compareUint(a.Minor, b.Minor); o != OrderEqual {
		return o
	}
	if o := compareUint(a.Patch, b.Patch); o != OrderEqual {
		return o
	}
	switch {
	case a.Tag == "" && b.Tag == "":
		return OrderEqual
	case a.Tag == "" && b.Tag != "":
		return OrderLess
	case a.Tag != "" && b.Tag == "":
		return OrderGreater
	default:
		return OrderEqual
	}
}

func compareUint(a, b uint16) Ordering {
	switch {
	case a < b:
		return OrderLess
	case a > b:
		return OrderGreater
	default:
		return OrderEqual
	}
}

// Satisfies reports whether candidate satisfies constraint's Condition
// against constraint's own (major, minor, patch, tag) value.
func Satisfies(candidate, constraint Version) bool {
	o := Compare(candidate, constraint)
	switch constraint.Condition {
	case Less:
		return o == OrderLess
	case LessOrEqual:
		return o == OrderLess || o == OrderEqual
	case GreaterOrEqual:
		return o == OrderGreater || o == OrderEqual
	case Greater:
		return o == OrderGreater
	case Equal, "":
		return o == OrderEqual
	default:
		return false
	}
}

// String renders the version as "<condition><readable>", condition elided
// when Equal, matching the textual form accepted by Parse.
func (v Version) String() string {
	if v.Condition == Equal || v.Condition == "" {
		return v.Readable
	}
	return string(v.Condition) + v.Readable
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"major":     v.Major,
		"minor":     v.Minor,
		"patch":     v.Patch,
		"tag":       v.Tag,
		"readable":  v.Readable,
		"condition": string(v.Condition),
	})
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var raw struct {
		Major     uint16 `json:"major"`
		Minor     uint16 `json:"minor"`
		Patch     uint16 `json:"patch"`
		Tag       string `json:"tag"`
		Readable  string `json:"readable"`
		Condition string `json:"condition"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cond := Condition(raw.Condition)
	if cond == "" {
		cond = Equal
	}
	if !cond.valid() {
		return fmt.Errorf("invalid version condition %q", raw.Condition)
	}

	*v = Version{
		Major:     raw.Major,
		Minor:     raw.Minor,
		Patch:     raw.Patch,
		Tag:       raw.Tag,
		Readable:  raw.Readable,
		Condition: cond,
	}
	return nil
}
