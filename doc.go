// Package pageplan plans and executes paging queries over entity graphs.
//
// # Overview
//
// A page request fetches root entities together with eagerly loaded
// associations. Once a collection is joined, one root spans several result
// rows and LIMIT/OFFSET no longer bounds the number of roots. pageplan picks
// a strategy that pages by root entity instead of by row:
//   - NATIVE_LIMIT: LIMIT/OFFSET (or the nested ROWNUM form) when no join can
//     duplicate roots.
//   - SINGLE_COLUMN_RANK: a dense rank over root-only order keys.
//   - MULTI_COLUMN_DISTINCT_RANK: the user-installed distinct-rank analytic
//     function, for orderings reaching through collections.
//   - MEMORY_PAGING: an opt-in fallback windowing root groups in memory.
//
// Key concepts
//   - EntityType: schema of a mapped entity, its attributes and associations.
//   - QueryShape: root type, filter, fetch paths, order paths and distinct
//     mode, validated eagerly by QueryBuilder.
//   - Dialect: a backend with its paging Capability.
//   - Pager: selects the strategy, runs the count and page queries through an
//     Executor and assembles a Page of entities.
package pageplan
