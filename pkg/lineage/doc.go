// Package lineage models historical organizational lineage: entities with
// time-bounded existence, directed succession events between them, and the
// derived structures the layout engine consumes.
//
// # Overview
//
// The surrounding system maintains a moderated database of entities and
// succession events. This package provides the read-only snapshot of that
// data ([Graph]), the decomposition of a connected component into linear
// [Chain] runs ([BuildChains]), and the structural [Fingerprint] that
// identifies a [Family] for caching.
//
// # Fingerprints
//
// A family has no persistent identity of its own - it is re-derived from the
// graph on every discovery pass and referenced only through its fingerprint
// hash. The hash covers node and link IDs plus their years and deliberately
// excludes names and eras, so display edits never invalidate cached layouts
// while structural edits always do.
//
// # Chains
//
// Chains are the atomic layout unit: maximal 1:1 succession runs with no
// temporal overlap. Merge and split points always terminate chains, as does
// an overlap between a predecessor's effective end and a successor's
// founding. Open-ended entities extend through the caller-supplied current
// year; see [Node.EffectiveEnd] and [EffectiveEndFromEras] for the zombie
// edge case.
package lineage
