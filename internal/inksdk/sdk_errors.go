package inksdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL    = errors.New("sdk: server url missing or invalid")
	ErrInvalidEmail   = errors.New("sdk: invalid email")
	ErrNoCredentials  = errors.New("sdk: no site key or refresh token")
	ErrNoRefreshToken = errors.New("sdk: refresh token missing")
)

// Error codes mirrored from the server API.
const (
	CodeInvalidRequest = "E_INVALID_REQUEST"
	CodeRateLimited    = "E_RATE_LIMITED"
	CodeInternalError  = "E_INTERNAL_ERROR"
	CodeAccessDenied   = "E_ACCESS_DENIED"

	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"
	CodeAuthTokenGenerationFailed = "E_AUTH_TOKEN_GENERATION_FAILED"
	CodeAuthTokenRefreshFailed    = "E_AUTH_TOKEN_REFRESH_FAILED"

	CodeContentNotFound    = "E_CONTENT_NOT_FOUND"
	CodeContentInvalidPath = "E_INVALID_PATH"
	CodeInvalidManifest    = "E_INVALID_MANIFEST"

	CodeSyncInProgress   = "E_SYNC_IN_PROGRESS"
	CodeSyncCommitFailed = "E_SYNC_COMMIT_FAILED"
)

// SDKError is any error carrying a server error code.
type SDKError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// APIError is the server's error envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

func (e *APIError) ErrorCode() string    { return e.Code }
func (e *APIError) ErrorMessage() string { return e.Message }

var _ SDKError = (*APIError)(nil)

// HasCode reports whether err wraps a server error with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// handleAPIError folds the transport error and the API error envelope into
// one error value, or nil for a success response.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		if apiErr, ok := resp.ErrorResult().(*APIError); ok {
			return fmt.Errorf("%s: %w", operation, apiErr)
		}
		return fmt.Errorf("api error: %s: %s %s", operation, resp.Status, resp.String())
	}

	return nil
}
