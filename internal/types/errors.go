package types

import "errors"

var (
	// ErrConfiguration covers bad input, bad tweet_type and missing credentials.
	// It is raised before any external call.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyInput means the text produced no sentences
	ErrEmptyInput = errors.New("empty input")

	// ErrLookup means the platform could not resolve a post by id
	ErrLookup = errors.New("lookup failure")
)
