// Package constants holds the values clef shares between the catalog
// client, the inventory queries and the command line.
package constants

import "time"

const (
	// DefaultNode is the ESGF index node queried when none is configured.
	DefaultNode  = "https://esgf.nci.org.au"
	SearchPath   = "/esg-search/search"
	SearchFormat = "application/solr+json"
	// BrowsePath is the human search page linked from no-match and
	// overflow messages.
	BrowsePath = "/search/esgf-nci"

	DefaultHTTPTimeout = 60 * time.Second
)

const (
	// DefaultLimit is the row limit sent with every catalog search. A
	// search that finds more is an overflow, never a truncation.
	DefaultLimit = 10000

	// Inventory lookups are chunked so IN clauses stay within what
	// Postgres plans well.
	FilenameBatchSize = 500
	ChecksumBatchSize = 1000
)

// FilePermissions applies to request, export and log files clef writes.
const FilePermissions = 0o644

// MissingChecksum is the placeholder for catalog files published
// without a checksum.
const MissingChecksum = "None"
