// Package layout assigns each chain of a family to a discrete lane
// (y-index) on the rendered timeline, minimizing a multi-term visual cost.
//
// # Cost model
//
// [Evaluator] scores a candidate assignment with four weighted terms:
// attraction (children near parents), cut-through (succession edges passing
// through occupied lanes), blocker (chains sitting inside other edges'
// vertical segments), and lane sharing (temporal overlaps and the family
// versus stranger gap policy). Each term can be disabled by zeroing its
// weight, and every score is available as a per-term [Breakdown] for
// diagnostics.
//
// # Search
//
// The cost landscape is non-convex and piecewise, so [Optimizer] runs a
// generational genetic search: tournament selection, uniform crossover,
// elitism, and four mutation strategies (swap, heuristic, compaction,
// exploration) chosen per event by configured probabilities. Candidates are
// immutable values - every mutation clones before writing - which keeps the
// population auditable and evaluation safe to parallelize.
//
// Runs are deterministic for a fixed seed and always terminate through the
// generation budget, the convergence patience, or the wall-clock timeout.
// The final assignment is normalized so the lowest lane is 0; all cost terms
// are translation-invariant, so the score is unaffected.
package layout
