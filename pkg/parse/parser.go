package parse

import (
	"fmt"

	"src.vsh.sh/pkg/arena"
	"src.vsh.sh/pkg/diag"
)

// parser consumes a token list with one token of lookahead (two for the
// name '(' ')' function form).
type parser struct {
	name   string
	src    string
	tokens []Token
	pos    int
	err    *diag.Error
}

// Parse lexes and parses src. It returns a nil node and a nil error for
// input that contains no commands (empty, or only blanks and comments).
// Errors carry the source position of the offending token.
func Parse(name, src string, a *arena.Arena) (Node, error) {
	tokens, err := Lex(name, src, a)
	if err != nil {
		return nil, err
	}
	ps := &parser{name: name, src: src, tokens: tokens}
	n := ps.program()
	if ps.err != nil {
		return nil, ps.err
	}
	return n, nil
}

func (ps *parser) peek() Token { return ps.tokens[ps.pos] }

func (ps *parser) peekKind() TokenKind { return ps.tokens[ps.pos].Kind }

func (ps *parser) next() Token {
	t := ps.tokens[ps.pos]
	if t.Kind != EOF {
		ps.pos++
	}
	return t
}

func (ps *parser) skipNewlines() {
	for ps.peekKind() == Newline {
		ps.next()
	}
}

// expect consumes the next token if it has the wanted kind, and records an
// error otherwise.
func (ps *parser) expect(k TokenKind) Token {
	t := ps.peek()
	if t.Kind != k {
		ps.errorf(t, "unexpected %s, should be %s", t, k)
		return t
	}
	return ps.next()
}

func (ps *parser) errorf(culprit diag.Ranger, format string, args ...interface{}) {
	if ps.err != nil {
		// Keep the first error; recovery is not attempted.
		return
	}
	ps.err = &diag.Error{
		Type:    "parse error",
		Message: fmt.Sprintf(format, args...),
		Context: *diag.NewContext(ps.name, ps.src, culprit),
	}
}

// program := [NL*] list? [NL*] EOF
func (ps *parser) program() Node {
	ps.skipNewlines()
	if ps.peekKind() == EOF {
		return nil
	}
	n := ps.list()
	ps.skipNewlines()
	if ps.err == nil && ps.peekKind() != EOF {
		t := ps.peek()
		ps.errorf(t, "unexpected %s", t)
	}
	return n
}

// startsCommand reports whether a token of kind k can begin a command.
// Keywords that double as builtin names (return, local) count, as do
// redirections, which may precede the first word of a simple command.
func startsCommand(k TokenKind) bool {
	switch k {
	case Word, Bang, LParen, LBrace,
		KwIf, KwWhile, KwFor, KwFunction, KwReturn, KwLocal,
		RedirIn, RedirOut, RedirAppend, RedirHeredoc, RedirDupOut, RedirDupIn:
		return true
	}
	return false
}

// list := andOr ( sep andOr )* sep?  where sep is ';', '&', or newline.
// '&&' and '||' bind inside andOr. '&' wraps the andOr to its left in a
// Background node. Leading newlines are skipped. The fold is left-leaning
// throughout.
func (ps *parser) list() Node {
	var acc Node
	ps.skipNewlines()
	for ps.err == nil && startsCommand(ps.peekKind()) {
		item := ps.andOr()
		if ps.err != nil {
			break
		}
		switch ps.peekKind() {
		case Amp:
			t := ps.next()
			item = &Background{Ranging: diag.MixedRanging(item, t), Child: item}
		case Semi, Newline:
			ps.next()
		}
		if acc == nil {
			acc = item
		} else {
			acc = &Sequence{Ranging: diag.MixedRanging(acc, item), Left: acc, Right: item}
		}
		ps.skipNewlines()
	}
	if acc == nil && ps.err == nil {
		t := ps.peek()
		ps.errorf(t, "unexpected %s, should be a command", t)
	}
	return acc
}

// andOr := pipeline ( ('&&' | '||') [NL*] pipeline )*
func (ps *parser) andOr() Node {
	left := ps.pipeline()
	for ps.err == nil {
		switch ps.peekKind() {
		case AndAnd:
			ps.next()
			ps.skipNewlines()
			right := ps.pipeline()
			if ps.err != nil {
				return left
			}
			left = &And{Ranging: diag.MixedRanging(left, right), Left: left, Right: right}
		case OrOr:
			ps.next()
			ps.skipNewlines()
			right := ps.pipeline()
			if ps.err != nil {
				return left
			}
			left = &Or{Ranging: diag.MixedRanging(left, right), Left: left, Right: right}
		default:
			return left
		}
	}
	return left
}

// pipeline := ['!'] command ( '|' [NL*] command )*
func (ps *parser) pipeline() Node {
	negated := false
	var bang Token
	if ps.peekKind() == Bang {
		bang = ps.next()
		negated = true
	}
	first := ps.command()
	if ps.err != nil {
		return first
	}
	var cmds []Node
	cmds = append(cmds, first)
	for ps.peekKind() == Pipe {
		ps.next()
		ps.skipNewlines()
		c := ps.command()
		if ps.err != nil {
			return first
		}
		cmds = append(cmds, c)
	}
	if len(cmds) == 1 {
		if negated {
			return &Negate{Ranging: diag.MixedRanging(bang, first), Child: first}
		}
		return first
	}
	r := diag.MixedRanging(cmds[0], cmds[len(cmds)-1])
	if negated {
		r = diag.MixedRanging(bang, cmds[len(cmds)-1])
	}
	return &Pipeline{Ranging: r, Commands: cmds, Negated: negated}
}

func (ps *parser) command() Node {
	switch ps.peekKind() {
	case KwIf:
		return ps.ifCommand()
	case KwWhile:
		return ps.whileCommand()
	case KwFor:
		return ps.forCommand()
	case KwFunction:
		return ps.functionCommand()
	case LBrace:
		return ps.block()
	case LParen:
		return ps.subshell()
	case Word:
		// name ( ) { ... } defines a function without the keyword.
		if ps.pos+2 < len(ps.tokens) &&
			ps.tokens[ps.pos+1].Kind == LParen && ps.tokens[ps.pos+2].Kind == RParen {
			return ps.functionCommand()
		}
		return ps.simple()
	default:
		return ps.simple()
	}
}

// if := 'if' list 'then' list ('elif' list 'then' list)* ('else' list)? 'fi'
func (ps *parser) ifCommand() Node {
	start := ps.expect(KwIf)
	cond := ps.list()
	ps.expect(KwThen)
	then := ps.list()
	if ps.err != nil {
		return nil
	}
	node := &If{Cond: cond, Then: then}
	// Collect elif arms iteratively, then link them from the tail up so
	// each becomes the Else of the previous one.
	var arms []*If
	arms = append(arms, node)
	for ps.err == nil && ps.peekKind() == KwElif {
		ps.next()
		c := ps.list()
		ps.expect(KwThen)
		t := ps.list()
		if ps.err != nil {
			return nil
		}
		arm := &If{Cond: c, Then: t}
		arms[len(arms)-1].Else = arm
		arms = append(arms, arm)
	}
	if ps.peekKind() == KwElse {
		ps.next()
		arms[len(arms)-1].Else = ps.list()
	}
	end := ps.expect(KwFi)
	if ps.err != nil {
		return nil
	}
	r := diag.MixedRanging(start, end)
	for _, arm := range arms {
		arm.Ranging = r
	}
	return node
}

// while := 'while' list 'do' list 'done'
func (ps *parser) whileCommand() Node {
	start := ps.expect(KwWhile)
	cond := ps.list()
	ps.expect(KwDo)
	body := ps.list()
	end := ps.expect(KwDone)
	if ps.err != nil {
		return nil
	}
	return &While{Ranging: diag.MixedRanging(start, end), Cond: cond, Body: body}
}

// for := 'for' WORD ('in' WORD*)? (';' | NL) 'do' list 'done'
func (ps *parser) forCommand() Node {
	start := ps.expect(KwFor)
	v := ps.expect(Word)
	if ps.err != nil {
		return nil
	}
	f := &For{Var: v.Text}
	if ps.peekKind() == KwIn {
		ps.next()
		f.HasIn = true
		for ps.peekKind() == Word {
			t := ps.next()
			f.Words = append(f.Words, WordNode{Ranging: t.Ranging, Text: t.Text, Quote: t.Quote, Quoted: t.Quoted})
		}
	}
	switch ps.peekKind() {
	case Semi, Newline:
		ps.next()
	default:
		t := ps.peek()
		ps.errorf(t, "unexpected %s, should be ';' or newline", t)
		return nil
	}
	ps.skipNewlines()
	ps.expect(KwDo)
	f.Body = ps.list()
	end := ps.expect(KwDone)
	if ps.err != nil {
		return nil
	}
	f.Ranging = diag.MixedRanging(start, end)
	return f
}

// function := 'function' WORD ('(' ')')? '{' list '}'
//           | WORD '(' ')' '{' list '}'
func (ps *parser) functionCommand() Node {
	var start diag.Ranger
	if ps.peekKind() == KwFunction {
		start = ps.next()
		name := ps.expect(Word)
		if ps.err != nil {
			return nil
		}
		if ps.peekKind() == LParen {
			ps.next()
			ps.expect(RParen)
		}
		body := ps.block()
		if ps.err != nil {
			return nil
		}
		return &Function{Ranging: diag.MixedRanging(start, body), Name: name.Text, Body: body}
	}
	name := ps.expect(Word)
	start = name
	ps.expect(LParen)
	ps.expect(RParen)
	ps.skipNewlines()
	body := ps.block()
	if ps.err != nil {
		return nil
	}
	return &Function{Ranging: diag.MixedRanging(start, body), Name: name.Text, Body: body}
}

// block := '{' list '}'
func (ps *parser) block() Node {
	start := ps.expect(LBrace)
	ps.skipNewlines()
	child := ps.list()
	end := ps.expect(RBrace)
	if ps.err != nil {
		return nil
	}
	return &Block{Ranging: diag.MixedRanging(start, end), Child: child}
}

// subshell := '(' list ')'
func (ps *parser) subshell() Node {
	start := ps.expect(LParen)
	ps.skipNewlines()
	child := ps.list()
	end := ps.expect(RParen)
	if ps.err != nil {
		return nil
	}
	return &Subshell{Ranging: diag.MixedRanging(start, end), Child: child}
}

// wordable reports whether a token may serve as an argument word. Keywords
// carry their text, so they demote to plain words anywhere but command
// position.
func wordable(k TokenKind) bool {
	switch k {
	case Word,
		KwIf, KwThen, KwElif, KwElse, KwFi, KwWhile, KwFor, KwDo, KwDone,
		KwIn, KwFunction, KwReturn, KwLocal:
		return true
	}
	return false
}

// startsWordable reports whether k may begin a simple command as its first
// word. Only the keywords that name builtins qualify here; the others keep
// their grammatical role in command position.
func startsWordable(k TokenKind) bool {
	return k == Word || k == KwReturn || k == KwLocal
}

// simple := (WORD | redirection)+ with leading NAME=VALUE words collected
// as assignments until the first ordinary word.
func (ps *parser) simple() Node {
	cmd := &Command{}
	first := ps.peek()
	sawWord := false
	for ps.err == nil {
		t := ps.peek()
		switch {
		case t.Kind == RedirIn || t.Kind == RedirOut || t.Kind == RedirAppend:
			ps.next()
			target := ps.peek()
			if !wordable(target.Kind) {
				ps.errorf(target, "unexpected %s, should be a redirection target", target)
				return nil
			}
			ps.next()
			cmd.Redirs = append(cmd.Redirs, &Redir{
				Ranging: diag.MixedRanging(t, target),
				Type:    redirTypeOf(t.Kind), Fd: t.RedirFd, Target: target.Text,
			})
		case t.Kind == RedirDupOut || t.Kind == RedirDupIn:
			ps.next()
			typ := DupOut
			if t.Kind == RedirDupIn {
				typ = DupIn
			}
			cmd.Redirs = append(cmd.Redirs, &Redir{
				Ranging: t.Ranging, Type: typ, Fd: t.RedirFd, Target: t.Text,
			})
		case t.Kind == RedirHeredoc:
			ps.next()
			cmd.Redirs = append(cmd.Redirs, &Redir{
				Ranging: t.Ranging, Type: Heredoc, Fd: t.RedirFd,
				Target: t.Text, Body: t.Body, Quoted: t.Quoted, Strip: t.Strip,
			})
		case !sawWord && startsWordable(t.Kind), sawWord && wordable(t.Kind):
			ps.next()
			if !sawWord && len(cmd.Argv) == 0 {
				// A quoted name or '=' makes the word an argument, not an
				// assignment.
				if name, value, ok := splitAssign(t.Text); ok && unquotedPrefix(t.Quote, len(name)+1) {
					a := &Assign{Ranging: t.Ranging, Name: name, Value: value}
					if t.Quote != nil {
						a.Quote = t.Quote[len(name)+1:]
					}
					cmd.Assigns = append(cmd.Assigns, a)
					continue
				}
			}
			sawWord = true
			cmd.Argv = append(cmd.Argv, WordNode{Ranging: t.Ranging, Text: t.Text, Quote: t.Quote, Quoted: t.Quoted})
		default:
			if len(cmd.Argv) == 0 && len(cmd.Redirs) == 0 && len(cmd.Assigns) == 0 {
				ps.errorf(t, "unexpected %s, should be a command", t)
				return nil
			}
			last := ps.tokens[ps.pos-1]
			cmd.Ranging = diag.MixedRanging(first, last)
			return cmd
		}
	}
	return nil
}

func redirTypeOf(k TokenKind) RedirType {
	switch k {
	case RedirIn:
		return Input
	case RedirOut:
		return Output
	default:
		return Append
	}
}

// unquotedPrefix reports whether the first n bytes of a quoting mask are
// all Unquoted.
func unquotedPrefix(mask []byte, n int) bool {
	for i := 0; i < n && i < len(mask); i++ {
		if mask[i] != Unquoted {
			return false
		}
	}
	return true
}

// splitAssign splits NAME=VALUE if NAME is a valid identifier.
func splitAssign(s string) (name, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '=' {
			if i == 0 {
				return "", "", false
			}
			return s[:i], s[i+1:], true
		}
		if c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' {
			continue
		}
		if '0' <= c && c <= '9' && i > 0 {
			continue
		}
		return "", "", false
	}
	return "", "", false
}
