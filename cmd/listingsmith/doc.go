// Command listingsmith generates product listing creatives from the terminal.
//
// Generation, task management, exports and the libraries run directly against
// the local database; the daemon subcommands manage listingsmithd, which
// serves the same operations over HTTP.
package main
