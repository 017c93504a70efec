package domain

import "errors"

// Domain errors
var (
	ErrEntryNotFound  = errors.New("entry not found in leaderboard")
	ErrBoardNotFound  = errors.New("leaderboard not found")
	ErrInvalidScore   = errors.New("invalid score value")
	ErrInvalidRun     = errors.New("invalid run statistics")
	ErrInvalidRequest = errors.New("invalid request")
	ErrRemoteTimeout  = errors.New("remote leaderboard timed out")
	ErrRemoteResponse = errors.New("remote leaderboard returned an unexpected response")
	ErrInternalError  = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrBoardNotFound)
}
