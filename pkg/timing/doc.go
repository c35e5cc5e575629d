// Package timing groups small clock-driven helpers used around worker
// pools: stopwatch records elapsed time between marks, pacer holds a loop
// to a target rate and measures the rate actually achieved.
package timing
