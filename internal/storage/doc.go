// Package storage owns the SQLite database that backs every listingsmith
// repository: tasks and their results, the material and template libraries,
// and the history log.
//
// The database lives at <data_dir>/listingsmith.db and runs in WAL mode with
// foreign keys enabled. The schema is embedded and versioned; opening a
// database created by a different schema version fails with ErrSchemaMismatch.
//
// Writes go through Exec or InTx, which retry while SQLite reports the file as
// busy so a CLI invocation and the daemon can share one database.
package storage
