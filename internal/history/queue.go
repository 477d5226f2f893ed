// Package history keeps the linear undo/redo timeline of an editing
// session.
//
// A Queue is a list of operations plus a cursor. The operations at indexes
// 0..cursor are active; anything after the cursor can be redone until the
// next Append discards it. Every method is a saturating state transition and
// never fails. A Queue is not safe for concurrent use.
package history

import "github.com/ironsheep/image-editor-mcp/internal/ops"

// Queue is an append-only, truncate-on-branch operation list.
type Queue struct {
	items  []ops.Operation
	cursor int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{cursor: -1}
}

// Append drops every operation after the cursor, appends a copy of op and
// moves the cursor to it.
func (q *Queue) Append(op ops.Operation) {
	q.items = append(q.items[:q.cursor+1], op.Clone())
	q.cursor = len(q.items) - 1
}

// Undo moves the cursor back one step. It is a no-op at -1.
func (q *Queue) Undo() {
	if q.cursor >= 0 {
		q.cursor--
	}
}

// Redo moves the cursor forward one step. It is a no-op at the end.
func (q *Queue) Redo() {
	if q.cursor < len(q.items)-1 {
		q.cursor++
	}
}

// CanUndo reports whether Undo would change the cursor.
func (q *Queue) CanUndo() bool { return q.cursor >= 0 }

// CanRedo reports whether Redo would change the cursor.
func (q *Queue) CanRedo() bool { return q.cursor < len(q.items)-1 }

// Active returns deep copies of the operations up to and including the cursor.
func (q *Queue) Active() []ops.Operation {
	return clone(q.items[:q.cursor+1])
}

// All returns deep copies of every stored operation, including the redo tail.
func (q *Queue) All() []ops.Operation {
	return clone(q.items)
}

// Reset moves the cursor to -1 and keeps the operations for redo.
func (q *Queue) Reset() {
	q.cursor = -1
}

// Clear drops every operation.
func (q *Queue) Clear() {
	q.items = nil
	q.cursor = -1
}

// Cursor returns the index of the last active operation, or -1.
func (q *Queue) Cursor() int { return q.cursor }

// Len returns the number of stored operations.
func (q *Queue) Len() int { return len(q.items) }

func clone(in []ops.Operation) []ops.Operation {
	out := make([]ops.Operation, len(in))
	for i, op := range in {
		out[i] = op.Clone()
	}
	return out
}
