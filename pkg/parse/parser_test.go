package parse

import (
	"testing"

	"src.vsh.sh/pkg/arena"
	"src.vsh.sh/pkg/tt"
)

// printed parses src and prints the tree back canonically; "nil" for an
// empty program and "error" for a parse error.
func printed(src string) string {
	n, err := Parse("[test]", src, arena.New())
	if err != nil {
		return "error"
	}
	if n == nil {
		return "nil"
	}
	return Print(n)
}

func TestParse(t *testing.T) {
	tt.Test(t, tt.Fn("printed", printed), tt.Table{
		tt.Args("").Rets("nil"),
		tt.Args("\n\n").Rets("nil"),
		tt.Args("# comment only\n").Rets("nil"),
		tt.Args("echo hi").Rets("echo hi"),
		tt.Args("echo  hi   there").Rets("echo hi there"),
		tt.Args("a | b | c").Rets("a | b | c"),
		tt.Args("! a | b").Rets("! a | b"),
		tt.Args("! a").Rets("! a"),
		tt.Args("a && b || c").Rets("a && b || c"),
		tt.Args("a; b").Rets("a; b"),
		tt.Args("a\nb").Rets("a; b"),
		tt.Args("a &").Rets("a &"),
		tt.Args("a & b").Rets("a &; b"),
		tt.Args("(a; b)").Rets("(a; b)"),
		tt.Args("{ a; b; }").Rets("{ a; b; }"),
		tt.Args("if a; then b; fi").Rets("if a; then b; fi"),
		tt.Args("if a; then b; else c; fi").Rets("if a; then b; else c; fi"),
		tt.Args("if a\nthen\nb\nfi").Rets("if a; then b; fi"),
		tt.Args("if a; then b; elif c; then d; else e; fi").
			Rets("if a; then b; elif c; then d; else e; fi"),
		tt.Args("while a; do b; done").Rets("while a; do b; done"),
		tt.Args("for x in a b c; do echo $x; done").
			Rets("for x in a b c; do echo $x; done"),
		tt.Args("for x; do echo $x; done").Rets("for x; do echo $x; done"),
		tt.Args("for x in; do echo $x; done").Rets("for x in; do echo $x; done"),
		tt.Args("function f { a; }").Rets("function f { a; }"),
		tt.Args("function f() { a; }").Rets("function f { a; }"),
		tt.Args("f() { a; b; }").Rets("function f { a; b; }"),
		tt.Args("FOO=bar").Rets("FOO=bar"),
		tt.Args("FOO=bar cmd x").Rets("FOO=bar cmd x"),
		tt.Args("cmd FOO=bar").Rets("cmd FOO=bar"),
		tt.Args("echo hi > f").Rets("echo hi > f"),
		tt.Args("cat < in >> out").Rets("cat < in >> out"),
		tt.Args("cat f 2>&1").Rets("cat f 2>&1"),
		tt.Args("cmd <&0").Rets("cmd <&0"),
		tt.Args("> f echo hi").Rets("echo hi > f"),
		tt.Args("return 3").Rets("return 3"),
		tt.Args("local x=1").Rets("local x=1"),
		// Keywords demote to words after the first word of a command.
		tt.Args("echo if then").Rets("echo 'if' 'then'"),
		// Quoting survives printing: double quotes keep '$' active,
		// single quotes and escapes stay inert.
		tt.Args(`echo "$HOME dir"`).Rets(`echo "$HOME dir"`),
		tt.Args(`echo '$HOME'`).Rets(`echo '$HOME'`),
		tt.Args(`echo \$HOME`).Rets(`echo '$'HOME`),
		tt.Args(`echo a\ b`).Rets(`echo a' 'b`),
		tt.Args(`echo ""`).Rets(`echo ''`),
		tt.Args(`FOO="a b"`).Rets(`FOO="a b"`),
		tt.Args(`FOO=`).Rets(`FOO=`),
		// A quoted '=' word is an argument, not an assignment.
		tt.Args(`"A=b"`).Rets(`"A=b"`),

		// Errors.
		tt.Args("if a; then b").Rets("error"),
		tt.Args("while a; do b").Rets("error"),
		tt.Args("for; do a; done").Rets("error"),
		tt.Args("(a").Rets("error"),
		tt.Args("{ a;").Rets("error"),
		tt.Args("a |").Rets("error"),
		tt.Args("a &&").Rets("error"),
		tt.Args("| a").Rets("error"),
		tt.Args(";").Rets("error"),
		tt.Args("fi").Rets("error"),
	})
}

func TestParse_PrintRoundTrip(t *testing.T) {
	srcs := []string{
		"echo hi",
		"a | b && c || d; e &",
		"if a; then b; elif c; then d; else e; fi",
		"while read x; do echo $x; done",
		"for x in 'a b' c; do echo $x > out; done",
		"function greet { echo hello; }",
		"(a; b) | { c; d; }",
		"FOO=bar BAZ=qux cmd arg 2>&1",
		"echo 'quoted word' plain",
		"! true && echo no",
	}
	for _, src := range srcs {
		first := printed(src)
		if first == "error" {
			t.Errorf("parse(%q) errored", src)
			continue
		}
		second := printed(first)
		if first != second {
			t.Errorf("print not stable for %q:\n first: %s\nsecond: %s",
				src, first, second)
		}
	}
}

func TestParse_HeredocRoundTrip(t *testing.T) {
	src := "cat <<END\nline one\nline two\nEND\n"
	n, err := Parse("[test]", src, arena.New())
	if err != nil {
		t.Fatal(err)
	}
	out := Print(n)
	n2, err := Parse("[test]", out, arena.New())
	if err != nil {
		t.Fatalf("reparse of %q: %v", out, err)
	}
	cmd := firstCommand(n2)
	if cmd == nil || len(cmd.Redirs) != 1 {
		t.Fatalf("reparse lost the heredoc: %q", out)
	}
	if body := cmd.Redirs[0].Body; body != "line one\nline two\n" {
		t.Errorf("heredoc body = %q after round trip", body)
	}
}

func firstCommand(n Node) *Command {
	switch n := n.(type) {
	case *Command:
		return n
	case *Sequence:
		return firstCommand(n.Left)
	case *Pipeline:
		return firstCommand(n.Commands[0])
	}
	return nil
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("[test]", "if a; then b", arena.New())
	if err == nil {
		t.Fatal("want error")
	}
	if _, ok := err.(interface{ Show(string) string }); !ok {
		t.Errorf("parse error %T does not support Show", err)
	}
}
