package eval

import (
	"fmt"
	"os"
	"strconv"

	"src.vsh.sh/pkg/parse"
)

// applyRedirs assembles the fd table for a command: the frame's standard
// streams with the redirection chain applied in source order. Slot i of
// the result is fd i of the child (or of the builtin, for fds 0..2). The
// returned cleanup closes every file the applier opened.
func (fm *Frame) applyRedirs(redirs []*parse.Redir) ([]*os.File, func(), error) {
	files := []*os.File{fm.files[0], fm.files[1], fm.files[2]}
	var opened []*os.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	setFd := func(fd int, f *os.File) {
		for len(files) <= fd {
			files = append(files, nil)
		}
		files[fd] = f
	}

	for _, r := range redirs {
		fd := r.Fd
		if fd < 0 {
			fd = r.Type.DefaultFd()
		}
		switch r.Type {
		case parse.Input, parse.Output, parse.Append:
			target, err := fm.expandValue(r.Target, nil)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			f, err := openRedir(r.Type, target)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			opened = append(opened, f)
			setFd(fd, f)
		case parse.DupOut, parse.DupIn:
			src, err := strconv.Atoi(r.Target)
			if err != nil || src < 0 {
				cleanup()
				return nil, nil, fmt.Errorf("%s: bad file descriptor", r.Target)
			}
			if src >= len(files) || files[src] == nil {
				cleanup()
				return nil, nil, fmt.Errorf("%d: bad file descriptor", src)
			}
			setFd(fd, files[src])
		case parse.Heredoc:
			f, err := fm.heredocPipe(r)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			opened = append(opened, f)
			setFd(fd, f)
		}
	}
	return files, cleanup, nil
}

func openRedir(t parse.RedirType, target string) (*os.File, error) {
	switch t {
	case parse.Input:
		return os.Open(target)
	case parse.Append:
		return os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	default:
		return os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	}
}

// heredocPipe delivers a heredoc body through a pipe written by a
// goroutine, returning the read end. A quoted delimiter suppresses
// parameter expansion of the body.
func (fm *Frame) heredocPipe(r *parse.Redir) (*os.File, error) {
	body := r.Body
	if !r.Quoted {
		expanded, _, err := fm.expandParams(body, nil)
		if err != nil {
			return nil, err
		}
		body = expanded
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	// The body may exceed the pipe buffer; the writer must not block the
	// shell.
	go func(body string) {
		pw.WriteString(body)
		pw.Close()
	}(string(append([]byte(nil), body...)))
	return pr, nil
}
