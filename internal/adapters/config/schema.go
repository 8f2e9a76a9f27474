package config

import (
	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Buildfile represents the structure of the bld.yaml build file.
type Buildfile struct {
	Version string     `yaml:"version"`
	Targets TargetList `yaml:"targets"`
}

// TargetDTO represents a target definition in the build file.
type TargetDTO struct {
	Deps  []string   `yaml:"deps"`
	Cmd   CommandDTO `yaml:"cmd"`
	Shell string     `yaml:"shell"`
	Phony bool       `yaml:"phony"`
}

// NamedTarget is a TargetDTO together with its key in the build file.
type NamedTarget struct {
	Name   string
	Target TargetDTO
}

// TargetList holds the targets in the order they are declared.
type TargetList []NamedTarget

// UnmarshalYAML decodes the targets mapping, keeping declaration order.
func (l *TargetList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return zerr.With(zerr.New("targets must be a mapping"), "line", node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	list := make(TargetList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return err
		}
		if seen[name] {
			return zerr.With(zerr.New("duplicate target"), "target", name)
		}
		seen[name] = true

		var dto TargetDTO
		if valueNode.Kind != yaml.ScalarNode || valueNode.Tag != "!!null" {
			if err := valueNode.Decode(&dto); err != nil {
				return zerr.With(err, "target", name)
			}
		}
		list = append(list, NamedTarget{Name: name, Target: dto})
	}

	*l = list
	return nil
}

// CommandDTO accepts either a list of arguments or a single command line.
type CommandDTO struct {
	domain.Command
}

// UnmarshalYAML decodes a sequence as argv and a scalar as a command line.
func (c *CommandDTO) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return err
		}
		c.Command = domain.NewCommand(parts...)
		return nil
	case yaml.ScalarNode:
		var line string
		if err := node.Decode(&line); err != nil {
			return err
		}
		cmd, err := domain.ParseCommand(line)
		if err != nil {
			return err
		}
		c.Command = cmd
		return nil
	default:
		return zerr.With(zerr.New("cmd must be a string or a list"), "line", node.Line)
	}
}
