// Package sorter reorders the children of selected XML elements by a sort
// key taken from an attribute value or a named sub-element's text.
//
// Keys are extracted and coerced once per child, then the children are
// stable-sorted, so ties and missing keys keep their original relative order
// in either direction. A key that cannot be parsed under the requested
// comparison mode degrades to absent instead of failing the sort.
package sorter

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/Kopachris/sortxml/core/errors"
	"github.com/Kopachris/sortxml/core/xml"
	"github.com/Kopachris/sortxml/internal/validation"
)

// Mode selects how raw key strings are compared.
type Mode int

const (
	// ModeLexical compares keys as plain strings.
	ModeLexical Mode = iota
	// ModeDecimal parses keys as exact-precision decimal numbers.
	ModeDecimal
	// ModeDatetime parses keys with a permissive date/time grammar.
	ModeDatetime
)

func (m Mode) String() string {
	switch m {
	case ModeDecimal:
		return "decimal"
	case ModeDatetime:
		return "datetime"
	default:
		return "lexical"
	}
}

// KeySpec describes how to obtain and compare a sort key for each child of
// a selected parent element.
type KeySpec struct {
	// Key is the attribute name, or the sub-element name when UseText is set.
	Key string
	// UseText selects the text of the first direct sub-element named Key
	// instead of an attribute value.
	UseText bool
	// Mode selects lexical, decimal, or datetime comparison.
	Mode Mode
	// Descending reverses the order of present keys; absent keys then sort
	// after all present keys instead of before.
	Descending bool
}

// NewKeySpec builds a KeySpec from the flag-level options, rejecting
// conflicting modes and invalid key names before any document is touched.
func NewKeySpec(key string, useText, asDecimal, asDatetime, descending bool) (KeySpec, error) {
	if asDecimal && asDatetime {
		return KeySpec{}, errors.NewConfig("mode", "decimal and datetime are mutually exclusive")
	}
	key, err := validation.ValidateKeyName(key)
	if err != nil {
		return KeySpec{}, errors.NewConfig("key", err.Error())
	}

	mode := ModeLexical
	switch {
	case asDecimal:
		mode = ModeDecimal
	case asDatetime:
		mode = ModeDatetime
	}

	return KeySpec{
		Key:        key,
		UseText:    useText,
		Mode:       mode,
		Descending: descending,
	}, nil
}

// validate checks a KeySpec assembled by hand rather than via NewKeySpec.
func (s KeySpec) validate() error {
	if s.Key == "" {
		return errors.NewConfig("key", "sort key name cannot be empty")
	}
	if s.Mode != ModeLexical && s.Mode != ModeDecimal && s.Mode != ModeDatetime {
		return errors.NewConfig("mode", "unknown comparison mode")
	}
	return nil
}

// keyKind tags the coerced variants of a sort key.
type keyKind int

const (
	keyAbsent keyKind = iota
	keyString
	keyDecimal
	keyTime
)

// key is the coerced, comparable form of one child's raw sort key.
// The zero value is the absent key.
type key struct {
	kind keyKind
	str  string
	dec  decimal.Decimal
	t    time.Time
}

// sortKey pairs a child element with its coerced key for the duration of
// one sort call.
type sortKey struct {
	el *xml.Element
	k  key
}

// extract returns the raw sort key string for child, and whether a key is
// present. A missing attribute, missing sub-element, or empty sub-element
// text all report absent.
func extract(child *xml.Element, spec KeySpec) (string, bool) {
	if spec.UseText {
		sub := child.ChildNamed(spec.Key)
		if sub == nil {
			return "", false
		}
		text := sub.Text()
		if text == "" {
			return "", false
		}
		return text, true
	}
	return child.Attr(spec.Key)
}

// coerce converts a raw key to its comparable form. Parse failures under
// decimal or datetime mode degrade to the absent key.
func coerce(raw string, present bool, mode Mode) key {
	if !present {
		return key{}
	}
	switch mode {
	case ModeDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return key{}
		}
		return key{kind: keyDecimal, dec: d}
	case ModeDatetime:
		t, err := dateparse.ParseAny(strings.TrimSpace(raw))
		if err != nil {
			return key{}
		}
		return key{kind: keyTime, t: t}
	default:
		return key{kind: keyString, str: raw}
	}
}

// compare orders two coerced keys: absent before all present values, present
// values by the natural order of their type. Keys produced under one KeySpec
// always share a kind when both are present.
func compare(a, b key) int {
	switch {
	case a.kind == keyAbsent && b.kind == keyAbsent:
		return 0
	case a.kind == keyAbsent:
		return -1
	case b.kind == keyAbsent:
		return 1
	}
	switch a.kind {
	case keyDecimal:
		return a.dec.Cmp(b.dec)
	case keyTime:
		return a.t.Compare(b.t)
	default:
		return strings.Compare(a.str, b.str)
	}
}

// Sort resolves path against doc and stable-sorts the direct children of
// every matching element, each parent independently. It returns the number
// of parents matched; a path that matches nothing leaves the document
// unchanged and returns 0 with no error. The document is mutated in place;
// only child order changes.
func Sort(doc *xml.Document, path string, spec KeySpec) (int, error) {
	if err := spec.validate(); err != nil {
		return 0, err
	}

	parents, err := doc.Select(path)
	if err != nil {
		return 0, err
	}

	for _, parent := range parents {
		sortChildren(parent, spec)
	}
	return len(parents), nil
}

// sortChildren reorders one parent's direct element children per spec.
func sortChildren(parent *xml.Element, spec KeySpec) {
	children := parent.Children()
	if len(children) < 2 {
		return
	}

	// Coerce every key once; comparisons then never re-parse.
	keys := make([]sortKey, len(children))
	for i, child := range children {
		raw, present := extract(child, spec)
		keys[i] = sortKey{el: child, k: coerce(raw, present, spec.Mode)}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		c := compare(keys[i].k, keys[j].k)
		if spec.Descending {
			return c > 0
		}
		return c < 0
	})

	ordered := make([]*xml.Element, len(keys))
	for i, sk := range keys {
		ordered[i] = sk.el
	}
	xml.ReplaceChildren(parent, ordered)
}
