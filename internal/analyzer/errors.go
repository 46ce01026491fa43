package analyzer

import (
	"errors"
	"fmt"

	"phishscore/internal/urlcheck"
)

var (
	ErrMalformedURL       = urlcheck.ErrMalformedURL
	ErrContentUnavailable = errors.New("page content unavailable")
)

// ContentUnavailableError is returned together with a partial analysis when
// the page could not be fetched. It matches ErrContentUnavailable and the
// underlying fetch error.
type ContentUnavailableError struct {
	URL string
	Err error
}

func (e *ContentUnavailableError) Error() string {
	return fmt.Sprintf("content unavailable for %s: %v", e.URL, e.Err)
}

func (e *ContentUnavailableError) Unwrap() []error {
	return []error{ErrContentUnavailable, e.Err}
}
