// Package merge implements flowkit's single-consumer, N-producer,
// pull-based asynchronous merger (§4.5): sources can be registered and
// removed freely while the merger is configuring, but the source set
// freezes the instant enumeration begins.
package merge

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oakfield-labs/flowkit/asyncseq"
	"github.com/oakfield-labs/flowkit/errs"
)

// Fairness selects how the merger schedules among sources with data
// ready at the same time.
type Fairness int

const (
	// FirstAvailable yields from whichever source's pull resolves
	// first; no ordering guarantee across sources.
	FirstAvailable Fairness = iota
	// RoundRobin biases selection to advance a cursor across sources
	// so none is starved under continuous input from its neighbors.
	RoundRobin
)

// ErrorMode selects how a source failure is handled.
type ErrorMode int

const (
	// FailFast ends enumeration the instant any source fails.
	FailFast ErrorMode = iota
	// ContinueOnError drops the failing source and keeps the rest
	// running; the merger ends cleanly once the last source is gone.
	ContinueOnError
)

// Config configures a Unified merger.
type Config struct {
	ErrorMode ErrorMode
	Fairness  Fairness
	ErrorSink errs.ErrorSink
	Logger    logrus.FieldLogger
}

// state is the merger's lifecycle state (§4.5's state machine).
type state int

const (
	stateConfiguring state = iota
	stateEnumerating
	stateCompleted
	stateFailed
	stateCancelled
)

// source is one registered producer.
type source[T any] struct {
	name      string
	stream    asyncseq.Seq[T]
	predicate func(T) bool
}

// Unified is an N-source asynchronous merger. A Unified value is only
// ever driven by one consumer at a time; concurrent calls to Unify,
// Unlisten, or IterAsync are not supported.
type Unified[T any] struct {
	mu      sync.Mutex
	cfg     Config
	state   state
	order   []string
	sources map[string]*source[T]

	// populated once enumeration starts (state >= stateEnumerating).
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates an empty merger with the given policy (§4.5 `new`).
func New[T any](cfg Config) *Unified[T] {
	if cfg.ErrorSink == nil {
		cfg.ErrorSink = errs.NopSink
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		cfg.Logger = l
	}
	return &Unified[T]{
		cfg:     cfg,
		sources: make(map[string]*source[T]),
	}
}

// Unify registers a source under a unique name (§4.5 `unify`). Legal
// only before enumeration starts; afterward it fails with
// LifecycleError.
func (u *Unified[T]) Unify(name string, stream asyncseq.Seq[T], predicate func(T) bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateConfiguring {
		return &LifecycleError{Op: "unify", Name: name}
	}
	if _, exists := u.sources[name]; exists {
		return fmt.Errorf("merge: source name %q already registered", name)
	}
	u.sources[name] = &source[T]{name: name, stream: stream, predicate: predicate}
	u.order = append(u.order, name)
	return nil
}

// Unlisten removes a registered source (§4.5 `unlisten`). Legal only
// before enumeration starts.
func (u *Unified[T]) Unlisten(name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != stateConfiguring {
		return &LifecycleError{Op: "unlisten", Name: name}
	}
	if _, exists := u.sources[name]; !exists {
		return fmt.Errorf("merge: source name %q is not registered", name)
	}
	delete(u.sources, name)
	for i, n := range u.order {
		if n == name {
			u.order = append(u.order[:i], u.order[i+1:]...)
			break
		}
	}
	return nil
}
