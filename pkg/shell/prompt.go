package shell

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"src.vsh.sh/pkg/eval"
)

// prompt renders the two-line interactive prompt: a context line with the
// clock, user@host, directory and git branch, then the input line. The
// input line carries the last exit status when it is nonzero. When the
// session is not interactive there is no prompt at all, so that reading
// lines from a pipe leaves stderr to diagnostics.
func prompt(ev *eval.Evaler) string {
	if !ev.Interactive {
		return ""
	}
	var b strings.Builder
	b.WriteString(color.HiBlackString("[%s]", time.Now().Format("15:04:05")))
	b.WriteByte(' ')
	b.WriteString(color.GreenString("%s@%s", username(), hostname()))
	b.WriteByte(':')
	b.WriteString(color.BlueString("%s", promptDir()))
	if branch := gitBranch(); branch != "" {
		b.WriteByte(' ')
		b.WriteString(color.YellowString("(%s)", branch))
	}
	b.WriteByte('\n')
	if ev.LastStatus != 0 {
		b.WriteString(color.RedString("[%d]", ev.LastStatus))
	}
	b.WriteString("$ ")
	return b.String()
}

func username() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "?"
	}
	return name
}

// promptDir is the working directory with the home directory abbreviated
// to ~.
func promptDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "?"
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return wd
	}
	if wd == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(wd, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return wd
}

// gitBranch finds the checked-out branch by walking up from the working
// directory to the nearest .git/HEAD. A detached head shows as an
// abbreviated commit hash.
func gitBranch() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
		if err == nil {
			head := strings.TrimSpace(string(data))
			if branch, ok := strings.CutPrefix(head, "ref: refs/heads/"); ok {
				return branch
			}
			if len(head) > 8 {
				return head[:8]
			}
			return head
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
