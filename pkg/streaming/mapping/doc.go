// Package mapping provides concurrency-bounded transform operators.
//
// MapBounded runs up to N transforms at once and emits results in
// submission order; MapBoundedUnordered emits results in completion
// order through a bounded hand-off queue. Both guarantee that no more
// than N transforms are in flight and that the first transform failure
// cancels its siblings and fails the flow.
package mapping
