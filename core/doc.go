// Package core contains the canonical reship domain contracts, entities, and
// orchestration logic. Lower-level adapters must depend on this package; core
// must not depend on queue-specific or transport-specific adapters.
package core
