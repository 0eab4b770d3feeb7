// Package partition splits accounts into load-balanced buckets.
//
// The partitioner implements the Longest-Processing-Time-first (LPT)
// heuristic for the multiprocessor scheduling problem: accounts are sorted
// by load descending and greedily appended to the currently lightest bucket.
// LPT guarantees a makespan within (4/3 - 1/3k) of the optimal partition and
// is fully deterministic for a given input order.
package partition
