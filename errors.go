package tfpm

import (
	"fmt"
	"strings"

	"github.com/sid-code/tfpm/internal/version"
)

// UnmetDependenciesError reports every dependency failure check_all found
// (spec §4.1, §4.6 step 1, §4.7 step 2). It is fatal unless the NoDeps
// policy downgrades it to a logged warning.
type UnmetDependenciesError struct {
	Failures []version.Failure
}

func (e *UnmetDependenciesError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s requires %s", f.Offender, f.Dep.String())
	}
	return "unmet dependencies: " + strings.Join(parts, "; ")
}

// Conflict is one FILE entry that collided with a path already owned by
// another package.
type Conflict struct {
	Package string
	Path    string
	Owner   string
}

// FileConflictError reports every FILE-kind path collision found while
// inserting a batch's files. It always causes the enclosing transaction to
// be rolled back (spec §4.6 step 4).
type FileConflictError struct {
	Conflicts []Conflict
}

func (e *FileConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s: %q already owned by %s", c.Package, c.Path, c.Owner)
	}
	return "file conflicts: " + strings.Join(parts, "; ")
}

// NotInstalledError reports an uninstall target with no catalog entry
// (spec §4.7 step 1).
type NotInstalledError struct {
	Name string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("package %q is not installed", e.Name)
}

