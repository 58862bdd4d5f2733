// Package vesselerr defines the error taxonomy shared by the project graph
// engine. Every kind is a sentinel usable with errors.Is; the ConfigError and
// IOError wrappers carry the project, field or key that triggered the failure.
package vesselerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRequiredField indicates a project record lacks name or image
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrInvalidHealthcheck indicates a healthcheck table without a test command
	ErrInvalidHealthcheck = errors.New("invalid healthcheck")
	// ErrInvalidPort indicates a port mapping that cannot be parsed
	ErrInvalidPort = errors.New("invalid port mapping")
	// ErrEnvironmentConflict indicates projects disagree on a host variable
	ErrEnvironmentConflict = errors.New("environment variable conflict")
	// ErrCyclicDependency indicates the dependency graph contains a cycle
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrProjectNotFound indicates a referenced project has no record on disk
	ErrProjectNotFound = errors.New("project not found")
	// ErrConfigUnreadable indicates a record exists but cannot be read or decoded
	ErrConfigUnreadable = errors.New("config unreadable")
)

// ConfigError reports an invalid configuration. Kind is one of the Err*
// sentinels above.
type ConfigError struct {
	Kind    error
	Project string
	Field   string
	Detail  string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Project != "" {
		fmt.Fprintf(&b, ": project %q", e.Project)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// IOError reports a failure to locate or read a record on disk.
type IOError struct {
	Kind    error
	Project string
	Path    string
	Err     error
}

func (e *IOError) Error() string {
	msg := fmt.Sprintf("%s: project %q", e.Kind, e.Project)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IOError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Missing builds a MissingRequiredField error for field on project.
func Missing(project, field string) error {
	return &ConfigError{Kind: ErrMissingRequiredField, Project: project, Field: field}
}

// NotFound builds a ProjectNotFound error.
func NotFound(project, path string) error {
	return &IOError{Kind: ErrProjectNotFound, Project: project, Path: path}
}

// Unreadable builds a ConfigUnreadable error wrapping the cause.
func Unreadable(project, path string, err error) error {
	return &IOError{Kind: ErrConfigUnreadable, Project: project, Path: path, Err: err}
}
