package parse

import (
	"strings"
)

// Print renders a parse tree back to source that parses to a structurally
// equivalent tree. The output is a single logical line joined with ';',
// with heredoc bodies appended after the final newline. Printing a nil
// node yields the empty string.
func Print(n Node) string {
	if n == nil {
		return ""
	}
	var pr printer
	pr.node(n)
	if len(pr.heredocs) > 0 {
		pr.sb.WriteByte('\n')
		for _, h := range pr.heredocs {
			pr.sb.WriteString(h.Body)
			pr.sb.WriteString(h.Target)
			pr.sb.WriteByte('\n')
		}
	}
	return pr.sb.String()
}

type printer struct {
	sb       strings.Builder
	heredocs []*Redir
}

func (pr *printer) node(n Node) {
	switch n := n.(type) {
	case *Command:
		pr.command(n)
	case *Pipeline:
		if n.Negated {
			pr.sb.WriteString("! ")
		}
		for i, c := range n.Commands {
			if i > 0 {
				pr.sb.WriteString(" | ")
			}
			pr.node(c)
		}
	case *And:
		pr.node(n.Left)
		pr.sb.WriteString(" && ")
		pr.node(n.Right)
	case *Or:
		pr.node(n.Left)
		pr.sb.WriteString(" || ")
		pr.node(n.Right)
	case *Sequence:
		pr.node(n.Left)
		pr.sb.WriteString("; ")
		pr.node(n.Right)
	case *Background:
		pr.node(n.Child)
		pr.sb.WriteString(" &")
	case *Negate:
		pr.sb.WriteString("! ")
		pr.node(n.Child)
	case *Subshell:
		pr.sb.WriteString("(")
		pr.node(n.Child)
		pr.sb.WriteString(")")
	case *If:
		pr.sb.WriteString("if ")
		pr.node(n.Cond)
		pr.sb.WriteString("; then ")
		pr.node(n.Then)
		pr.elseArm(n.Else)
		pr.sb.WriteString("; fi")
	case *While:
		pr.sb.WriteString("while ")
		pr.node(n.Cond)
		pr.sb.WriteString("; do ")
		pr.node(n.Body)
		pr.sb.WriteString("; done")
	case *For:
		pr.sb.WriteString("for ")
		pr.sb.WriteString(n.Var)
		if n.HasIn {
			pr.sb.WriteString(" in")
			for _, w := range n.Words {
				pr.sb.WriteByte(' ')
				pr.word(w)
			}
		}
		pr.sb.WriteString("; do ")
		pr.node(n.Body)
		pr.sb.WriteString("; done")
	case *Function:
		pr.sb.WriteString("function ")
		pr.sb.WriteString(n.Name)
		pr.sb.WriteByte(' ')
		pr.node(n.Body)
	case *Block:
		pr.sb.WriteString("{ ")
		pr.node(n.Child)
		pr.sb.WriteString("; }")
	}
}

// elseArm prints elif chains without reopening a nested if.
func (pr *printer) elseArm(n Node) {
	if n == nil {
		return
	}
	if arm, ok := n.(*If); ok {
		pr.sb.WriteString("; elif ")
		pr.node(arm.Cond)
		pr.sb.WriteString("; then ")
		pr.node(arm.Then)
		pr.elseArm(arm.Else)
		return
	}
	pr.sb.WriteString("; else ")
	pr.node(n)
}

func (pr *printer) command(c *Command) {
	sep := false
	for _, a := range c.Assigns {
		if sep {
			pr.sb.WriteByte(' ')
		}
		pr.sb.WriteString(a.Name)
		pr.sb.WriteByte('=')
		if a.Value == "" {
			// Nothing to quote; NAME= assigns the empty string.
		} else if a.Quote == nil {
			pr.sb.WriteString(escapeWord(a.Value))
		} else {
			pr.sb.WriteString(quoteMasked(a.Value, a.Quote))
		}
		sep = true
	}
	for i, w := range c.Argv {
		if sep {
			pr.sb.WriteByte(' ')
		}
		if i == 0 && w.Quote == nil && (w.Text == "return" || w.Text == "local") {
			// These keywords parse as the command word either way.
			pr.sb.WriteString(w.Text)
		} else {
			pr.word(w)
		}
		sep = true
	}
	for _, r := range c.Redirs {
		if sep {
			pr.sb.WriteByte(' ')
		}
		pr.redir(r)
		sep = true
	}
}

func (pr *printer) word(w WordNode) {
	if w.Text == "" {
		pr.sb.WriteString("''")
		return
	}
	if _, isKw := keywords[w.Text]; isKw {
		// Quote so the word is not promoted back to a keyword.
		pr.sb.WriteString(singleQuote(w.Text))
		return
	}
	if w.Quote == nil {
		pr.sb.WriteString(escapeWord(w.Text))
		return
	}
	pr.sb.WriteString(quoteMasked(w.Text, w.Quote))
}

func (pr *printer) redir(r *Redir) {
	if r.Fd >= 0 {
		pr.sb.WriteString(string(rune('0' + r.Fd)))
	}
	switch r.Type {
	case Heredoc:
		pr.sb.WriteString("<<")
		if r.Strip {
			pr.sb.WriteByte('-')
		}
		if r.Quoted {
			pr.sb.WriteString(singleQuote(r.Target))
		} else {
			pr.sb.WriteString(r.Target)
		}
		pr.heredocs = append(pr.heredocs, r)
	case DupOut:
		pr.sb.WriteString(">&")
		pr.sb.WriteString(r.Target)
	case DupIn:
		pr.sb.WriteString("<&")
		pr.sb.WriteString(r.Target)
	default:
		pr.sb.WriteString(r.Type.String())
		pr.sb.WriteByte(' ')
		pr.sb.WriteString(escapeWord(r.Target))
	}
}

// escapeWord backslash-escapes the characters that would split or requote
// the word, leaving '$' and glob characters active.
func escapeWord(s string) string {
	if s == "" {
		return "''"
	}
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '|', '&', ';', '<', '>', '(', ')', '{', '}',
			'#', '\'', '"', '\\', '!':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// quoteMasked renders a word so that re-lexing reproduces both its text
// and its quoting mask: unquoted runs are escaped with '$' and glob
// characters left active, double-quoted runs are wrapped in double quotes
// with '$' still active, and fully quoted runs are single-quoted.
func quoteMasked(s string, mask []byte) string {
	var sb strings.Builder
	for i := 0; i < len(s); {
		j := i + 1
		for j < len(s) && mask[j] == mask[i] {
			j++
		}
		run := s[i:j]
		switch mask[i] {
		case Unquoted:
			sb.WriteString(escapeWord(run))
		case DoubleQuoted:
			sb.WriteString(doubleQuote(run))
		default:
			sb.WriteString(singleQuote(run))
		}
		i = j
	}
	return sb.String()
}

// doubleQuote wraps s in double quotes, escaping the characters that are
// special inside them.
func doubleQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '`':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

// singleQuote wraps s in single quotes, splicing any embedded quote.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
