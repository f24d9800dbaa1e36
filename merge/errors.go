package merge

import "fmt"

// LifecycleError is raised when Unify or Unlisten is called after
// enumeration has started (§4.5, §7 — merger freeze).
type LifecycleError struct {
	Op   string // "unify" or "unlisten"
	Name string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("merge: %s %q after enumeration has started", e.Op, e.Name)
}

// SourceFailureError wraps a producer failure with the name of the
// source that failed (§7, FailFast).
type SourceFailureError struct {
	Source string
	Err    error
}

func (e *SourceFailureError) Error() string {
	return fmt.Sprintf("merge: source %q failed: %v", e.Source, e.Err)
}

func (e *SourceFailureError) Unwrap() error { return e.Err }
