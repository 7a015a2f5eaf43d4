// Package export writes selected results to JSON, CSV and Parquet files, and
// the history log to JSON.
//
// Exports are write-once artifacts for the operator; nothing reads them back.
// Every file lands through fileutil.WriteAtomic.
package export
