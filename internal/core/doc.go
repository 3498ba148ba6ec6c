// Package core provides the reconciliation and bulk-import engine for the
// polling-unit registry.
//
// The registry is a flat file keyed by free-text names:
//
//	unit name, ward name, LGA name, state name[, latitude, longitude]
//
// The engine loads it into the state -> LGA -> ward hierarchy plus polling
// units. It creates any LGA or ward the store does not know yet.
//
// # Pipeline
//
//  1. [ReadRecords] splits the source with [ParseLine] and converts lines to
//     [RawImportRow] values. Malformed lines are counted, not fatal.
//  2. A [HierarchyIndex] is seeded from the [Store].
//  3. A [Planner] makes one pass over the rows and synthesizes missing nodes.
//     Each node is registered in the index immediately, so every (parent,
//     name) pair yields at most one node per run.
//  4. A [BulkLoader] writes LGAs, then wards, in fixed-size chunks.
//  5. Optionally all stored polling units are deleted.
//  6. Rows are resolved to ward ids. The [Validator] assigns positional unit
//     codes and gates coordinates. The loader then writes the units.
//
// [Importer] sequences these phases and reports them to an [Observer].
// [Service] runs imports in the background for the HTTP layer. Its
// [RunGate] keeps two runs from racing on the same store.
//
// # Matching
//
// All names compare by [Canonicalize]: accents folded, uppercased, everything
// but A-Z and 0-9 removed. State names also pass through a fixed alias table
// ([CanonicalState]), so "Abuja FCT" and "Federal Capital Territory" resolve
// to the same state. There is no fuzzy matching.
//
// # Error Handling
//
// Row defects are skipped and counted in [RunSummary]. Errors from the store
// or the source abort the run and are returned unchanged. Chunks already
// written are not rolled back. [MapError] converts errors into
// [UserMessage] values with stable codes for the HTTP layer.
package core
