// Package assign chooses which slot each bucket lands on.
//
// The partitioner fixes the load balance; this package only decides the
// bucket-to-slot bijection. The optimizer builds a profit matrix counting,
// for every (bucket, slot) pair, the accounts that would stay in place, and
// solves the resulting square assignment problem with the Kuhn-Munkres
// algorithm to minimize the number of accounts that actually move. An
// identity mode is also provided for callers that prefer determinism of the
// mapping itself over minimizing moves.
package assign
