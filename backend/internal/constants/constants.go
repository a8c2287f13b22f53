package constants

import "time"

// Exploration constants
const (
	// DefaultMostRecentLimit is how many articles the initial load requests
	DefaultMostRecentLimit = 30

	// DefaultByTagLimit is how many articles a tag expansion requests
	DefaultByTagLimit = 10

	// MaxListLimit caps the limit query parameter of the listing endpoints
	MaxListLimit = 100
)

// Session constants
const (
	// DefaultSessionTTL is how long an idle exploration session is kept
	DefaultSessionTTL = 30 * time.Minute

	// JanitorInterval is how often expired sessions are reaped
	JanitorInterval = time.Minute
)

// Import constants
const (
	// DefaultImportPages is the number of listing pages fetched per import
	DefaultImportPages = 5

	// DefaultImportConcurrency is the number of pages fetched in parallel
	DefaultImportConcurrency = 3
)
