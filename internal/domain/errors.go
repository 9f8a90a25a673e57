package domain

import "errors"

var (
	// ErrImageDecode is returned when an uploaded file cannot be decoded as an image
	ErrImageDecode = errors.New("uploaded file is not a readable image")

	// ErrOutlineNotFound is returned when no 4-point receipt outline can be detected
	ErrOutlineNotFound = errors.New("could not find receipt outline")

	// ErrExtraction is returned when the text extraction engine fails
	ErrExtraction = errors.New("text extraction failed")

	// ErrDateParse is returned when a stored expiry date cannot be parsed
	ErrDateParse = errors.New("invalid expiry date")

	// ErrNotFound is returned when a pantry item id does not exist
	ErrNotFound = errors.New("pantry item not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
