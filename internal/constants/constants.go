package constants

import "time"

const (
	// RefreshCooldown is the minimum interval between two match-history refreshes.
	RefreshCooldown     = 300 * time.Second
	CountdownTick       = time.Second
	MaxScheduleDelayHrs = 24
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SubmitConcurrency     = 10
	SearchSuggestionLimit = 10
	RecentReviewsLimit    = 50
	APIRateBurst          = 5
)

const (
	AnonymousReviewer = "匿名"
	UnknownAgent      = "Unknown"
	ShareHashtag      = "#Reviewant"
)
