// Package optifa decides whether two finite automata accept a common word without building their
// whole product.
//
// An Explorer walks pairs of states depth first. Before a pair is expanded it must pass two
// over-approximations of "some word leads from here to a pair of accepting states": equal run
// lengths (LengthChecker) and equal symbol counts (ParikhChecker). Pairs that fail either filter are
// pruned with everything only reachable through them. A solver query that cannot be decided in time
// lets the pair through, so a nonempty verdict is always backed by a witness while an empty verdict
// is only exact when no query timed out; Result.BestEffort reports the latter.
//
// MintermTree compresses the alphabet into classes of symbols that no transition tells apart.
package optifa
