// Package coord distributes input files across worker processes and
// aggregates file groups.
//
// One process (rank 0) owns a Coordinator: the FIFO of pending files, the
// per-group accumulators and the barriers. Every worker, including the one
// running inside rank 0, drives the loop
//
//	PULL → PROCESS → (REPORT | JOIN-GROUP) → PULL
//
// through a Queue: Local for workers in the coordinator's process, Client
// for remote workers talking net/rpc to a Service.
package coord
