// SPDX-License-Identifier: MPL-2.0

package foamdict

import (
	"fmt"
	"slices"
	"strings"
)

// splice is a pending replacement of src[start:end].
type splice struct {
	start, end int
	text       string
}

// Keys returns the statement keys of d in order, excluding directives.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if !e.Directive {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Get returns the entry for key, or nil. Later entries win, as in the
// toolkit's own reader. Quoted keys match with or without their quotes.
func (d *Dict) Get(key string) *Entry {
	for i := len(d.Entries) - 1; i >= 0; i-- {
		e := d.Entries[i]
		if e.Directive {
			continue
		}
		if e.Key == key || strings.Trim(e.Key, `"`) == key {
			return e
		}
	}
	return nil
}

// Find returns the first sub-dictionary named name in depth-first order.
func (f *File) Find(name string) *Dict {
	return find(f.Root, name)
}

func find(d *Dict, name string) *Dict {
	for _, e := range d.Entries {
		if e.Sub == nil {
			continue
		}
		if e.Key == name {
			return e.Sub
		}
		if sub := find(e.Sub, name); sub != nil {
			return sub
		}
	}
	return nil
}

// Lookup follows path from the root. An empty path returns the root.
func (f *File) Lookup(path ...string) *Dict {
	d := f.Root
	for _, name := range path {
		e := d.Get(name)
		if e == nil || e.Sub == nil {
			return nil
		}
		d = e.Sub
	}
	return d
}

// block resolves an edit target: "" is the root, "a/b" is a path from the
// root, and a plain name is searched depth-first.
func (f *File) block(name string) (*Dict, error) {
	var d *Dict
	switch {
	case name == "":
		d = f.Root
	case strings.Contains(name, "/"):
		d = f.Lookup(strings.Split(name, "/")...)
	default:
		d = f.Find(name)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrBlockNotFound, name)
	}
	return d, nil
}

// SetValue replaces the value of key in block. Only the bytes between the
// value start and its ';' change. On error the file is unchanged.
func (f *File) SetValue(block, key, value string) error {
	d, err := f.block(block)
	if err != nil {
		return err
	}
	e := d.Get(key)
	if e == nil {
		return fmt.Errorf("%w: %q in %q", ErrKeyNotFound, key, block)
	}
	if e.Sub != nil {
		return fmt.Errorf("%w: %q in %q", ErrNotAValue, key, block)
	}
	return f.apply([]splice{valueSplice(e, value)})
}

// SetAll replaces the value of every key in block with value. Sub-dictionaries
// and directives are left alone.
func (f *File) SetAll(block, value string) error {
	d, err := f.block(block)
	if err != nil {
		return err
	}
	var edits []splice
	for _, e := range d.Entries {
		if e.Directive || e.Sub != nil {
			continue
		}
		edits = append(edits, valueSplice(e, value))
	}
	if len(edits) == 0 {
		return fmt.Errorf("%w: block %q has no values", ErrKeyNotFound, block)
	}
	return f.apply(edits)
}

func valueSplice(e *Entry, value string) splice {
	if e.ValueStart == e.KeyEnd {
		value = " " + value
	}
	return splice{start: e.ValueStart, end: e.ValueEnd, text: value}
}

// apply performs the splices and reparses. The file is only updated when the
// result parses.
func (f *File) apply(edits []splice) error {
	slices.SortFunc(edits, func(a, b splice) int { return b.start - a.start })

	src := f.src
	for _, s := range edits {
		next := make([]byte, 0, len(src)-(s.end-s.start)+len(s.text))
		next = append(next, src[:s.start]...)
		next = append(next, s.text...)
		next = append(next, src[s.end:]...)
		src = next
	}

	parsed, err := Parse(src)
	if err != nil {
		return fmt.Errorf("edit produced invalid dictionary: %w", err)
	}
	*f = *parsed
	return nil
}
