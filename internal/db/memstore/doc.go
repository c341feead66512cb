// Package memstore provides in-process implementations of the engine's
// repositories. They back the "memory" storage mode and the engine tests.
//
// Every store guards its map with a single mutex; operations that the
// PostgreSQL repositories perform in one statement or transaction are
// performed under one lock acquisition here.
package memstore
