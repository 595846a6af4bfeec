// Package semaphore provides a bounded pool of identified permits.
//
// Unlike a counting semaphore, every acquisition returns a Permit
// handle: double-release is a harmless no-op, and a permit can carry a
// lease that auto-releases it after a configured duration. The
// throttle and objectpool packages build on these semantics.
package semaphore
