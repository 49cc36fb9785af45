package entities

import "errors"

var (
	// ErrMissingEnv signals a required environment variable is absent.
	ErrMissingEnv = errors.New("missing environment variable")
	// ErrAuth signals a credential rejection at batch level.
	ErrAuth = errors.New("authentication rejected")
	// ErrNoReference signals a PR body without an embedded parent reference.
	ErrNoReference = errors.New("no parent reference in body")
	// ErrNotFound signals a missing remote resource.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited signals a 429 that survived all retry attempts.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
)
