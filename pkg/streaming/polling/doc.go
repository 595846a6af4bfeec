// Package polling turns pull-based producers into flows.
//
// Poll runs a producer under an adaptive concurrency strategy that
// ramps parallelism while batches stay full and resets when the source
// runs dry. PollWithState threads an explicit cursor (for example a
// pagination token) through sequential producer calls. PollSchedule
// fires a producer on a cron schedule.
package polling
