package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied

	// Auth errors
	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"     // credentials or token invalid, expired, or malformed
	CodeAuthTokenGenerationFailed = "E_AUTH_TOKEN_GENERATION_FAILED" // failure while minting new tokens
	CodeAuthTokenRefreshFailed    = "E_AUTH_TOKEN_REFRESH_FAILED"    // failure while refreshing a token

	// Content errors
	CodeContentNotFound    = "E_CONTENT_NOT_FOUND" // the requested content path does not exist
	CodeContentInvalidPath = "E_INVALID_PATH"      // path is absolute, escapes the root, or uses a reserved segment
	CodeInvalidManifest    = "E_INVALID_MANIFEST"  // manifest entry malformed (bad path or hash)

	// Sync errors
	CodeSyncInProgress   = "E_SYNC_IN_PROGRESS"   // another commit round holds the content root
	CodeSyncCommitFailed = "E_SYNC_COMMIT_FAILED" // the commit round failed; previous head preserved
)
