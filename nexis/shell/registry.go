package shell

import (
	"fmt"
	"sort"
	"strings"

	"ironveil/nexis/kernel"
)

// cmdFunc runs one builtin. args excludes the command name; buffered
// writes to out land on the console or in the redirection target after
// the command returns.
type cmdFunc func(s *Shell, k *kernel.Kernel, args []string, out *output) error

// command describes one shell builtin.
type command struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	Run     cmdFunc
}

// registry maps names and aliases to commands. Primary names drive help
// output; aliases only resolve.
type registry struct {
	primary map[string]*command
	lookup  map[string]*command
}

func newRegistry() *registry {
	return &registry{
		primary: make(map[string]*command),
		lookup:  make(map[string]*command),
	}
}

func (r *registry) register(cmd command) error {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	if name == "" {
		return fmt.Errorf("shell: command with empty name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("shell: command %q has no handler", name)
	}
	if _, dup := r.lookup[name]; dup {
		return fmt.Errorf("shell: duplicate command %q", name)
	}
	c := cmd
	c.Name = name
	r.primary[name] = &c
	r.lookup[name] = &c
	for _, alias := range c.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" || alias == name {
			continue
		}
		if _, dup := r.lookup[alias]; dup {
			return fmt.Errorf("shell: duplicate alias %q", alias)
		}
		r.lookup[alias] = &c
	}
	return nil
}

func (r *registry) resolve(name string) (*command, bool) {
	c, ok := r.lookup[strings.ToLower(name)]
	return c, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.primary))
	for name := range r.primary {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
