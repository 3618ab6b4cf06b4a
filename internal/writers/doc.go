// Package writers turns ranked results into output lines and owns the
// process's result stream.
//
// Design:
//   • Formatting happens where the result is computed (any worker process);
//     only finished lines travel to the coordinator.
//   • A single goroutine writes lines, so lines from different files may
//     interleave but a line is never split.
package writers
