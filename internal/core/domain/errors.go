package domain

import "go.trai.ch/zerr"

var (
	// ErrEmptyCommand is returned when a command with no parts is executed.
	ErrEmptyCommand = zerr.New("no command to execute")

	// ErrInvalidCommandLine is returned when a command line cannot be split into words.
	ErrInvalidCommandLine = zerr.New("invalid command line")

	// ErrInvalidBufferSize is returned when output capture is configured with a non-positive buffer.
	ErrInvalidBufferSize = zerr.New("read buffer size must be positive")

	// ErrSpawnFailed is returned when the operating system cannot create a process.
	ErrSpawnFailed = zerr.New("failed to create child process")

	// ErrExecFailed is returned when the program image cannot be started.
	ErrExecFailed = zerr.New("failed to execute program")

	// ErrCommandFailed is returned when a command exits with a non-zero status.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandSignaled is returned when a command is terminated by a signal.
	ErrCommandSignaled = zerr.New("command terminated by signal")

	// ErrInvalidProc is returned when waiting on a handle that was cleaned up.
	ErrInvalidProc = zerr.New("invalid process handle")

	// ErrPipeFailed is returned when an output pipe cannot be created.
	ErrPipeFailed = zerr.New("failed to create pipe")

	// ErrOutputReadFailed is returned when draining a child's output fails.
	ErrOutputReadFailed = zerr.New("failed to read process output")

	// ErrCycleDetected is returned when a cycle is detected in the dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrMissingDependency is returned when a dependency is neither a target nor an existing file.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrTargetNotFound is returned when a requested target is not in the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrTargetFailed is returned when a target or one of its dependencies fails to build.
	ErrTargetFailed = zerr.New("target failed")

	// ErrDependencyFailed is returned when a target is skipped because a dependency failed.
	ErrDependencyFailed = zerr.New("dependency failed")

	// ErrBuildIncomplete is returned when a parallel build ends with unbuilt targets.
	ErrBuildIncomplete = zerr.New("build finished with unbuilt targets")

	// ErrStatFailed is returned when a path cannot be inspected.
	ErrStatFailed = zerr.New("failed to stat path")

	// ErrConfigReadFailed is returned when the build file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read build file")

	// ErrConfigParseFailed is returned when the build file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse build file")

	// ErrConfigNotFound is returned when no build file can be found.
	ErrConfigNotFound = zerr.New("could not find build file")

	// ErrInvalidTargetName is returned when a build file declares an empty target name.
	ErrInvalidTargetName = zerr.New("invalid target name")

	// ErrNoTargetsSpecified is returned when a command needs targets but none were given.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrBuildExecutionFailed is returned by the application when a build fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrNoCommandsSpecified is returned when a batch is requested without commands.
	ErrNoCommandsSpecified = zerr.New("no commands specified")

	// ErrBatchFailed is returned when a strict batch has a failed command.
	ErrBatchFailed = zerr.New("batch failed")

	// ErrWatcherStopped is returned when the file watcher ends before the context.
	ErrWatcherStopped = zerr.New("file watcher stopped")
)
