package decl

import (
	"fmt"
	"slices"
	"strings"
)

// Path returns the names from the outermost scope down to d.
func Path(d Declaration) []string {
	var path []string
	path = append(path, d.Name())
	for p := d.Parent(); p != nil; p = p.Parent() {
		path = append(path, p.Name())
	}
	slices.Reverse(path)
	return path
}

// FullName renders Path(d) as a qualified name, "::n::C" for a class C in
// namespace n.
func FullName(d Declaration) string {
	path := Path(d)
	if path[0] != GlobalName {
		return strings.Join(path, "::")
	}
	return GlobalName + strings.Join(path[1:], "::")
}

// Key identifies the same entity across independent parses.
type Key struct {
	File string
	Line int
	Path string
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s:%d", k.Path, k.File, k.Line)
}

// KeyOf returns the identity key of d.
func KeyOf(d Declaration) Key {
	loc := d.Location()
	return Key{File: loc.File, Line: loc.Line, Path: FullName(d)}
}
