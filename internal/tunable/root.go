package tunable

import (
	"context"
	"log/slog"

	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/paramid"
)

// Assignment maps flattened parameter names to the values an optimizer
// suggested for one round.
type Assignment map[string]any

// Root owns one round's assignment. Contexts created from it are valid until
// it expires.
type Root struct {
	assignment Assignment
	expired    bool
	round      int
	logger     *slog.Logger
}

// NewRoot returns a current Root for a standalone round. Use Rounds when a
// sequence of rounds must supersede each other.
func NewRoot(ctx context.Context, assignment Assignment) *Root {
	return &Root{
		assignment: assignment,
		logger:     ctxlog.FromContext(ctx),
	}
}

// Lookup returns the assignment for the parameter at path, or def when the
// assignment has no entry for it.
func (r *Root) Lookup(path paramid.Path, def any) any {
	if v, ok := r.assignment[path.String()]; ok {
		return v
	}
	return def
}

// Current reports whether contexts bound to r may still produce values.
func (r *Root) Current() bool { return !r.expired }

// Expire ends the round. It is idempotent.
func (r *Root) Expire() { r.expired = true }

// Round is the 1-based sequence number assigned by Rounds, or 0 for a
// standalone Root.
func (r *Root) Round() int { return r.round }

// NewContext builds the Context tree for t bound to this round.
func (r *Root) NewContext(t Tunable) (*Context, error) {
	return newContext(r, paramid.Path{}, t, make(map[Tunable]struct{}))
}

// Rounds hands out Roots one round at a time. Starting a round expires the
// previous one so that values computed for an already-scored suggestion
// cannot leak into the next.
type Rounds struct {
	current *Root
	count   int
}

// Next expires the current Root, if any, and starts a new round.
func (rs *Rounds) Next(ctx context.Context, assignment Assignment) *Root {
	if rs.current != nil {
		rs.current.Expire()
	}
	rs.count++
	root := NewRoot(ctx, assignment)
	root.round = rs.count
	rs.current = root
	root.logger.Debug("Round started.", "round", root.round, "assignment_size", len(assignment))
	return root
}

// Current returns the active Root, or nil before the first round and after Close.
func (rs *Rounds) Current() *Root { return rs.current }

// Count returns the number of rounds started so far.
func (rs *Rounds) Count() int { return rs.count }

// Close expires the active Root.
func (rs *Rounds) Close() {
	if rs.current != nil {
		rs.current.Expire()
		rs.current = nil
	}
}

// Resolve is a convenience for a single standalone round: it builds a Root
// and Context for t and returns the resolved value.
func Resolve(ctx context.Context, t Tunable, assignment Assignment) (any, error) {
	c, err := NewRoot(ctx, assignment).NewContext(t)
	if err != nil {
		return nil, err
	}
	return c.Value()
}
