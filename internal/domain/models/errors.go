package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownIndicator  = errors.New("unknown indicator")
	ErrUnsupportedPeriod = errors.New("unsupported period")
	ErrMissingCredential = errors.New("missing credential")
	ErrNoData            = errors.New("no data")
)

// AcquisitionError reports a source that could not deliver its series.
// It is fatal for the whole indicator request.
type AcquisitionError struct {
	Source string
	Series string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Series != "" {
		return fmt.Sprintf("acquire %s/%s: %v", e.Source, e.Series, e.Err)
	}
	return fmt.Sprintf("acquire %s: %v", e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// NewAcquisitionError wraps err unless it already is an AcquisitionError.
func NewAcquisitionError(source, series string, err error) error {
	var ae *AcquisitionError
	if errors.As(err, &ae) {
		return err
	}
	return &AcquisitionError{Source: source, Series: series, Err: err}
}

// IsAcquisitionError reports whether err carries an AcquisitionError.
func IsAcquisitionError(err error) bool {
	var ae *AcquisitionError
	return errors.As(err, &ae)
}
