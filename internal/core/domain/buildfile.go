package domain

const (
	// BuildFileName is the name of the build file searched for by the CLI.
	BuildFileName = "bld.yaml"

	// AltBuildFileName is accepted when BuildFileName is absent.
	AltBuildFileName = "bld.yml"

	// AllTarget is the conventional name of the aggregate phony target.
	AllTarget = "all"
)
