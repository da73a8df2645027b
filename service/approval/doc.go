// Package approval implements the human-in-the-loop gate: a work queue of
// human tasks and blocking approval requests resolved exactly once by a
// person or by their deadline.
package approval
