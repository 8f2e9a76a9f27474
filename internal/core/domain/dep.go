package domain

import "slices"

// Dep declares how a target is produced.
type Dep struct {
	// Target is the unique name of the output. For non-phony targets it is
	// also the filesystem path of the artifact.
	Target string
	// Deps lists, in order, the targets or plain filesystem paths this target
	// is built from.
	Deps []string
	// Command produces the target. An empty command builds nothing.
	Command Command
	// Phony targets have no artifact and are always stale.
	Phony bool
}

// NewDep creates a Dep for a file target.
func NewDep(target string, deps []string, cmd Command) Dep {
	return Dep{Target: target, Deps: deps, Command: cmd}
}

// NewPhony creates a Dep for a phony target.
func NewPhony(target string, deps ...string) Dep {
	return Dep{Target: target, Deps: deps, Phony: true}
}

// Node is a Dep owned by a Graph together with its scheduling state.
type Node struct {
	Dep

	// checked is set once the target has been built or found up to date.
	checked bool
}

func newNode(dep Dep) *Node {
	return &Node{Dep: dep.clone()}
}

func (d Dep) clone() Dep {
	return Dep{
		Target:  d.Target,
		Deps:    slices.Clone(d.Deps),
		Command: d.Command.Clone(),
		Phony:   d.Phony,
	}
}
