package api

import "errors"

var (
	// ErrTokenNotFound means the bearer token string has no record in the store.
	ErrTokenNotFound = errors.New("token not found")

	// ErrQuotaExceeded means the token's call history is at or above MaxCalls.
	ErrQuotaExceeded = errors.New("max api call amount reached")

	// ErrTokenVanished means the token disappeared between the auth check
	// and the history append. The recorder reports it as a non-fatal result,
	// not an error.
	ErrTokenVanished = errors.New("token vanished before history append")

	// ErrSubprocess means the summarizer wrote to stderr or failed to run.
	ErrSubprocess = errors.New("summarizer process error")

	// ErrProcessing means the summarizer's stdout was not valid JSON.
	ErrProcessing = errors.New("summarizer output unparseable")

	// ErrProcessingTimeout means the summarizer exceeded its deadline and was killed.
	ErrProcessingTimeout = errors.New("summarizer timed out")
)
