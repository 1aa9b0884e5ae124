// Package glob implements filename expansion over glob patterns.
package glob

import (
	"os"
	"sort"
	"unicode/utf8"
)

// Glob expands the pattern against the filesystem and returns the matching
// paths in sorted order. A pattern that matches nothing yields nil.
func Glob(p string) []string {
	var names []string
	Parse(p).Glob(func(name string) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Glob calls cb on every path matching the Pattern. If cb returns false,
// globbing stops early and Glob returns false.
func (p Pattern) Glob(cb func(string) bool) bool {
	segs := p.Segments
	dir := ""
	if len(segs) > 0 && IsSlash(segs[0]) {
		segs = segs[1:]
		dir = "/"
	}
	return glob(segs, dir, cb)
}

// glob matches segs under dir, calling cb on each result. Returning false
// propagates an interrupt from the callback.
func glob(segs []Segment, dir string, cb func(string) bool) bool {
	// Follow literal path elements directly instead of scanning the
	// directory. This is required for "." and "..", which never appear in
	// ReadDir output.
	for len(segs) > 1 && IsLiteral(segs[0]) && IsSlash(segs[1]) {
		elem := segs[0].(Literal).Data
		segs = segs[2:]
		dir += elem + "/"
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return true
		}
	}

	if len(segs) == 0 {
		return cb(dir)
	}
	if len(segs) == 1 && IsLiteral(segs[0]) {
		path := dir + segs[0].(Literal).Data
		if _, err := os.Lstat(path); err == nil {
			return cb(path)
		}
		return true
	}

	entries, err := readDir(dir)
	if err != nil {
		// Unreadable directories contribute no matches.
		return true
	}

	i := 0
	for ; i < len(segs); i++ {
		if IsSlash(segs[i]) {
			break
		}
	}
	if i < len(segs) {
		first, rest := segs[:i], segs[i+1:]
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() && matchElement(first, name) {
				if !glob(rest, dir+name+"/", cb) {
					return false
				}
			}
		}
		return true
	}

	for _, entry := range entries {
		name := entry.Name()
		if matchElement(segs, name) {
			if !cb(dir + name) {
				return false
			}
		}
	}
	return true
}

// readDir is os.ReadDir with "" standing for the working directory.
func readDir(dir string) ([]os.DirEntry, error) {
	if dir == "" {
		dir = "."
	}
	return os.ReadDir(dir)
}

// matchElement matches one path element against segs, which contain no
// Slash segments. A leading dot in the name is only matched by an explicit
// dot in the pattern, never by a wildcard.
func matchElement(segs []Segment, name string) bool {
	if len(segs) == 0 {
		return name == ""
	}
	if len(name) > 0 && name[0] == '.' && IsWild(segs[0]) {
		return false
	}
segs:
	for len(segs) > 0 {
		// A chunk is an optional leading Star followed by a run of
		// fixed-width segments (Literal, Question, Class).
		var i int
		for i = 1; i < len(segs); i++ {
			if isStar(segs[i]) {
				break
			}
		}
		chunk := segs[:i]
		startsWithStar := isStar(chunk[0])
		if startsWithStar {
			chunk = chunk[1:]
		}
		segs = segs[i:]

		// Try with the star consuming nothing. The last chunk must also
		// exhaust the name.
		ok, rest := matchFixedLength(chunk, name)
		if ok && (rest == "" || len(segs) > 0) {
			name = rest
			continue
		}

		if startsWithStar {
			// Let the star swallow one rune at a time and retry.
			for j, r := range name {
				ok, rest := matchFixedLength(chunk, name[j+utf8.RuneLen(r):])
				if ok && (rest == "" || len(segs) > 0) {
					name = rest
					continue segs
				}
			}
		}
		return false
	}
	return name == ""
}

func isStar(seg Segment) bool {
	w, ok := seg.(Wild)
	return ok && w.Type == Star
}

// matchFixedLength matches a run of fixed-width segments against a prefix
// of name, returning the unconsumed remainder on success.
func matchFixedLength(segs []Segment, name string) (bool, string) {
	for _, seg := range segs {
		switch seg := seg.(type) {
		case Literal:
			n := len(seg.Data)
			if len(name) < n || name[:n] != seg.Data {
				return false, ""
			}
			name = name[n:]
		case Wild:
			if name == "" {
				return false, ""
			}
			r, n := utf8.DecodeRuneInString(name)
			if !seg.Match(r) {
				return false, ""
			}
			name = name[n:]
		}
	}
	return true, name
}
