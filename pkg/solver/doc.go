// Package solver selects one implementation per interface so that every
// essential dependency, command, runner and restriction is satisfied.
//
// # Candidates
//
// For each interface the solver asks a candidate provider for the
// implementations of its main feed, matching supplementary feeds,
// user-registered feeds and native packages. Every candidate carries a
// [Reason]: unsuitable ones stay in the list so that failures can be
// explained. Suitable candidates are ranked by user preference, language,
// cache state (unless network use is full), stability up to the
// interface's stability policy, version, installed packages and
// architecture closeness.
//
// # Search
//
// [Solver.TrySolve] is a depth-first backtracking search. Choosing a
// candidate records its restrictions and version requirements against
// other interfaces and queues its dependencies, then its command's
// dependencies, then the command's runner. An interface that is already
// selected is reused if it satisfies the new requirement; otherwise the
// branch fails and the most recent choice is revisited. Recommended
// dependencies that cannot be satisfied are left out and reported in
// [Result.Omitted].
//
// No solution is not an error: TrySolve returns a [Result] whose
// [Failure] names the interface that ran out of candidates and why each
// candidate was rejected. [Solver.Solve] converts that into a NO_SOLUTION
// error for callers that only want selections.
//
// # Engines
//
// [Solver], [FallbackSolver] and [ExternalSolver] implement [Engine].
package solver
