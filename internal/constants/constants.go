package constants

// Context keys for values stored in the gin context by the auth middleware.
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"
)

const (
	// SearchResultLimit caps user search results.
	SearchResultLimit = 10

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 6
)
