package shell

import (
	"fmt"
	"strings"

	"src.vsh.sh/pkg/store/storedefs"
)

// expandHistory rewrites !-style event designators in line against the
// history store: !! for the previous command, !n and !-n for absolute and
// relative sequence numbers, and !prefix for the most recent command
// starting with prefix. Designators inside single quotes or after a
// backslash are left alone. The second return value reports whether the
// line changed.
func expandHistory(st storedefs.Store, line string) (string, bool, error) {
	if !strings.Contains(line, "!") {
		return line, false, nil
	}
	var b strings.Builder
	changed := false
	inSingle := false
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == '\'':
			inSingle = !inSingle
			b.WriteByte(c)
			i++
		case c == '\\' && !inSingle && i+1 < len(line):
			b.WriteByte(c)
			b.WriteByte(line[i+1])
			i += 2
		case c == '!' && !inSingle:
			event := scanEvent(line[i:])
			if event == "" {
				b.WriteByte(c)
				i++
				continue
			}
			text, err := lookupEvent(st, event)
			if err != nil {
				return "", false, fmt.Errorf("%s: event not found", event)
			}
			b.WriteString(text)
			changed = true
			i += len(event)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), changed, nil
}

// scanEvent returns the event designator at the start of s, including the
// leading !, or "" if s does not start one.
func scanEvent(s string) string {
	if len(s) < 2 {
		return ""
	}
	if s[1] == '!' {
		return s[:2]
	}
	i := 1
	if s[i] == '-' {
		i++
	}
	for i < len(s) && !strings.ContainsRune(" \t\n'\"\\!;|&()<>=", rune(s[i])) {
		i++
	}
	if i == 1 || (i == 2 && s[1] == '-') {
		return ""
	}
	return s[:i]
}

func lookupEvent(st storedefs.Store, event string) (string, error) {
	seq, err := st.NextCmdSeq()
	if err != nil {
		return "", err
	}
	spec := event[1:]
	if spec == "!" {
		cmd, err := st.PrevCmd(seq, "")
		return cmd.Text, err
	}
	if n, isNum := parseEventNum(spec); isNum {
		if n < 0 {
			n += seq
		}
		return st.Cmd(n)
	}
	cmd, err := st.PrevCmd(seq, spec)
	return cmd.Text, err
}

func parseEventNum(spec string) (int, bool) {
	n := 0
	neg := false
	if strings.HasPrefix(spec, "-") {
		neg = true
		spec = spec[1:]
	}
	if spec == "" {
		return 0, false
	}
	for i := 0; i < len(spec); i++ {
		if spec[i] < '0' || spec[i] > '9' {
			return 0, false
		}
		n = n*10 + int(spec[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}
