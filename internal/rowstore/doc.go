// Package rowstore is the persistent row store engine.
//
// # Overview
//
// A [Store] manages tables under one database directory. Each table is a pair
// of artifacts: an advisory column list and a row collection, both encoded
// with [codec] and laid out by [layout]. Decoded artifacts are kept in a
// byte-bounded LRU cache that is refreshed after every successful write and
// every cold load, so reads never observe a state older than the last write
// made through this Store.
//
// # Concurrency
//
// Every table has its own RWMutex. Mutations hold the write lock for the
// whole load-mutate-persist sequence, so concurrent mutations of one table
// serialize and none is lost. Reads hold the read lock. Distinct tables
// proceed in parallel. Concurrent cold loads of one artifact share a single
// disk read.
//
// Other processes writing the same files are not detected; the cache then
// serves stale data until restart.
//
// # Backups
//
// Before overwriting an artifact the Store asks its [backup.Throttler] for a
// snapshot. Snapshot failures are reported through Options.OnBackup and the
// log, never to the caller of the mutation.
package rowstore
