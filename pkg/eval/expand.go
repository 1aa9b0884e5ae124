package eval

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"src.vsh.sh/pkg/glob"
	"src.vsh.sh/pkg/parse"
)

// expandWord runs parameter, tilde, and glob expansion on one word, in
// that order, returning one or more fields. A word multiplies only
// through globbing.
func (fm *Frame) expandWord(w parse.WordNode) ([]string, error) {
	text, mask, err := fm.expandParams(w.Text, w.Quote)
	if err != nil {
		return nil, err
	}
	text, mask = fm.expandTilde(text, mask)
	if fields := fm.expandGlob(text, mask); fields != nil {
		return fields, nil
	}
	return []string{text}, nil
}

// expandValue expands a string that must stay a single field, such as an
// assignment value or a redirection target: parameters and tilde, no glob.
func (fm *Frame) expandValue(s string, mask []byte) (string, error) {
	text, m, err := fm.expandParams(s, mask)
	if err != nil {
		return "", err
	}
	text, _ = fm.expandTilde(text, m)
	return text, nil
}

// quoteClass returns the quoting class of byte i under mask; a nil mask
// means everything is unquoted.
func quoteClass(mask []byte, i int) byte {
	if mask == nil {
		return parse.Unquoted
	}
	return mask[i]
}

// expandParams substitutes every active '$' construct in s. Unknown
// constructs pass through literally. The returned mask classifies the
// output bytes; substituted text takes the class of its '$'.
func (fm *Frame) expandParams(s string, mask []byte) (string, []byte, error) {
	if !containsActiveDollar(s, mask) {
		return s, mask, nil
	}
	var out, outMask []byte
	emit := func(text string, class byte) {
		out = append(out, text...)
		for i := 0; i < len(text); i++ {
			outMask = append(outMask, class)
		}
	}
	for i := 0; i < len(s); {
		c := quoteClass(mask, i)
		if s[i] != '$' || c == parse.FullyQuoted {
			out = append(out, s[i])
			outMask = append(outMask, c)
			i++
			continue
		}
		value, consumed, err := fm.param(s[i:])
		if err != nil {
			return "", nil, err
		}
		if consumed == 0 {
			// A lone '$' passes through.
			out = append(out, '$')
			outMask = append(outMask, c)
			i++
			continue
		}
		emit(value, c)
		i += consumed
	}
	a := fm.ev.Arena
	return a.WrapBytes(a.Bytes(out)), a.Bytes(outMask), nil
}

func containsActiveDollar(s string, mask []byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && quoteClass(mask, i) != parse.FullyQuoted {
			return true
		}
	}
	return false
}

// param expands one construct at the start of s, which begins with '$'.
// It returns the substituted value and the number of bytes consumed; zero
// consumed bytes means the construct is not recognized and the '$' is
// literal.
func (fm *Frame) param(s string) (string, int, error) {
	if len(s) < 2 {
		return "", 0, nil
	}
	switch c := s[1]; {
	case c == '$':
		return strconv.Itoa(os.Getpid()), 2, nil
	case c == '?':
		return strconv.Itoa(fm.ev.LastStatus), 2, nil
	case c == '#':
		return strconv.Itoa(len(fm.ev.Args)), 2, nil
	case c == '!':
		// Background pids are not tracked.
		return "", 2, nil
	case c == '0':
		return fm.ev.ShellName, 2, nil
	case '1' <= c && c <= '9':
		n := int(c - '0')
		if n <= len(fm.ev.Args) {
			return fm.ev.Args[n-1], 2, nil
		}
		return "", 2, nil
	case c == '{':
		return fm.bracedParam(s)
	case isNameStart(c):
		j := 2
		for j < len(s) && isNameByte(s[j]) {
			j++
		}
		return fm.ev.Env.GetDefault(s[1:j]), j, nil
	}
	return "", 0, nil
}

// bracedParam expands ${NAME} and the ':' modifier forms. s begins with
// "${".
func (fm *Frame) bracedParam(s string) (string, int, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return "", 0, nil
	}
	inner := s[2:end]
	consumed := end + 1

	name := inner
	var op byte
	var word string
	if i := strings.IndexByte(inner, ':'); i >= 0 && i+1 < len(inner) {
		switch inner[i+1] {
		case '-', '=', '+', '?':
			name, op, word = inner[:i], inner[i+1], inner[i+2:]
		}
	}
	if !validName(name) {
		return "", 0, nil
	}

	value, set := fm.ev.Env.Get(name)
	useWord := !set || value == ""
	switch op {
	case 0:
		return value, consumed, nil
	case '-':
		if useWord {
			return word, consumed, nil
		}
		return value, consumed, nil
	case '=':
		if useWord {
			fm.ev.Env.Set(strings.Clone(name), strings.Clone(word), fm.ev.Env.Exported(name))
			return word, consumed, nil
		}
		return value, consumed, nil
	case '+':
		if useWord {
			return "", consumed, nil
		}
		return word, consumed, nil
	default: // '?'
		if useWord {
			msg := word
			if msg == "" {
				msg = "parameter null or not set"
			}
			return "", 0, fmt.Errorf("%s: %s", name, msg)
		}
		return value, consumed, nil
	}
}

func isNameStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isNameByte(c byte) bool {
	return isNameStart(c) || '0' <= c && c <= '9'
}

func validName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameByte(s[i]) {
			return false
		}
	}
	return true
}

// expandTilde rewrites a leading unquoted '~'. The replacement is marked
// fully quoted so that a home directory containing pattern characters does
// not turn into a glob.
func (fm *Frame) expandTilde(s string, mask []byte) (string, []byte) {
	if s == "" || s[0] != '~' || quoteClass(mask, 0) != parse.Unquoted {
		return s, mask
	}
	prefix, rest := s[1:], ""
	if i := strings.IndexByte(s, '/'); i >= 0 {
		prefix, rest = s[1:i], s[i:]
	}
	var dir string
	switch prefix {
	case "":
		dir = fm.ev.Env.GetDefault("HOME")
	case "+":
		dir = fm.ev.Env.GetDefault("PWD")
	case "-":
		dir = fm.ev.Env.GetDefault("OLDPWD")
	default:
		u, err := user.Lookup(prefix)
		if err != nil {
			return s, mask
		}
		dir = u.HomeDir
	}
	if dir == "" {
		return s, mask
	}
	a := fm.ev.Arena
	out := a.WrapBytes(a.Bytes(append([]byte(dir), rest...)))
	outMask := make([]byte, len(dir), len(out))
	for i := range outMask {
		outMask[i] = parse.FullyQuoted
	}
	for i := 0; i < len(rest); i++ {
		outMask = append(outMask, quoteClass(mask, len(s)-len(rest)+i))
	}
	return out, a.Bytes(outMask)
}

// expandGlob matches s against the filesystem when it contains an active
// pattern character. It returns nil when the word is not a glob or when
// nothing matches, in which case the literal word is kept.
func (fm *Frame) expandGlob(s string, mask []byte) []string {
	active := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[':
			if quoteClass(mask, i) == parse.Unquoted {
				active = true
			}
		}
	}
	if !active {
		return nil
	}
	names := glob.Glob(globPattern(s, mask))
	if len(names) == 0 {
		return nil
	}
	a := fm.ev.Arena
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = a.String(strings.TrimSuffix(name, "/"))
	}
	return out
}

// globPattern renders s as a glob source string, escaping the pattern
// characters that quoting made literal.
func globPattern(s string, mask []byte) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '*', '?', '[', ']', '-', '!', '^':
			if quoteClass(mask, i) != parse.Unquoted {
				sb.WriteByte('\\')
			}
		case '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
	return sb.String()
}
