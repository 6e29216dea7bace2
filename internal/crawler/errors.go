package crawler

import "errors"

var (
	// ErrSearchTimeout means the results feed never appeared. It ends the run.
	ErrSearchTimeout = errors.New("search results did not load")

	// ErrNavigationTimeout means a card's detail view never rendered.
	ErrNavigationTimeout = errors.New("detail view did not load")

	// ErrEndOfList means the requested card index is past the loaded cards.
	ErrEndOfList = errors.New("no more cards loaded")

	// ErrCloseFailed means the list view could not be restored.
	ErrCloseFailed = errors.New("could not return to results list")

	// ErrExtraction means the detail view could not be captured for mining.
	ErrExtraction = errors.New("detail extraction failed")
)
