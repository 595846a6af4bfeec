// Package grouping partitions flows into count- or time-bounded
// groups.
//
// Chunk emits each group as a slice; Group emits each group as a
// finite sub-flow. With TimeWindow the count threshold and the window
// deadline race, and whichever fires first flushes the group.
package grouping
