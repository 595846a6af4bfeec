// Package broadcast replicates one flow to multiple independent
// consumers with per-consumer backpressure.
package broadcast
