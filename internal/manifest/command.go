package manifest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/agbru/testorch/internal/suite"
)

// outputTail is how much command output is kept in a failure message.
const outputTail = 2048

// DefaultWaitDelay bounds how long a cancelled command may keep its output
// pipes open after it was killed.
const DefaultWaitDelay = 2 * time.Second

// BuildOption customises Build.
type BuildOption func(*builder)

type builder struct {
	baseEnv   []string
	baseDir   string
	waitDelay time.Duration
}

// WithBaseEnv sets the environment every command inherits. Defaults to
// os.Environ().
func WithBaseEnv(env []string) BuildOption {
	return func(b *builder) { b.baseEnv = env }
}

// WithBaseDir resolves relative dir entries against dir. Defaults to the
// directory of the manifest file.
func WithBaseDir(dir string) BuildOption {
	return func(b *builder) { b.baseDir = dir }
}

// WithWaitDelay overrides DefaultWaitDelay.
func WithWaitDelay(d time.Duration) BuildOption {
	return func(b *builder) { b.waitDelay = d }
}

// Build turns the manifest into a suite. The manifest's own tests come first,
// then one nested suite per group, in file order.
func (m *Manifest) Build(opts ...BuildOption) *suite.Suite {
	b := &builder{baseEnv: os.Environ(), waitDelay: DefaultWaitDelay}
	if m.Path != "" {
		b.baseDir = filepath.Dir(m.Path)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b.group(m.Group, nil, b.baseDir)
}

func (b *builder) group(g Group, env map[string]string, dir string) *suite.Suite {
	env = merge(env, g.Env)
	dir = b.resolve(dir, g.Dir)
	s := suite.New(g.Name)
	for _, spec := range g.Tests {
		s.AddTest(b.command(spec, merge(env, spec.Env), b.resolve(dir, spec.Dir)))
	}
	for _, sub := range g.Groups {
		s.AddTest(b.group(sub, env, dir))
	}
	return s
}

func (b *builder) resolve(parent, dir string) string {
	if dir == "" {
		return parent
	}
	if filepath.IsAbs(dir) || parent == "" {
		return dir
	}
	return filepath.Join(parent, dir)
}

func (b *builder) command(spec TestSpec, env map[string]string, dir string) *suite.Case {
	want := 0
	if spec.ExpectExit != nil {
		want = *spec.ExpectExit
	}
	argv := slices.Clone(spec.Command)
	environ := append(slices.Clone(b.baseEnv), flatten(env)...)
	waitDelay := b.waitDelay

	return suite.NewCase(spec.Name, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Env = environ
		cmd.Dir = dir
		cmd.WaitDelay = waitDelay
		out, err := cmd.CombinedOutput()

		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", argv[0], ctx.Err())
		}
		code := 0
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return fmt.Errorf("start %s: %w", argv[0], err)
			}
			code = exitErr.ExitCode()
		}
		if code != want {
			return suite.Failf("%s exited with status %d, want %d%s", argv[0], code, want, tail(out))
		}
		return nil
	})
}

// merge returns base overlaid with over. Neither map is modified.
func merge(base, over map[string]string) map[string]string {
	if len(over) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

// flatten renders env as sorted KEY=VALUE pairs.
func flatten(env map[string]string) []string {
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return ""
	}
	if len(s) > outputTail {
		s = "..." + s[len(s)-outputTail:]
	}
	return "\n" + s
}
