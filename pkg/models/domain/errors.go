package domain

import (
	"errors"
	"fmt"
)

// Error kinds, as shown to users and API clients.
const (
	KindDirectoryLoad = "directory_load"
	KindUnknownRegion = "unknown_region"
	KindInvalidPeriod = "invalid_period"
	KindFetch         = "fetch"
	KindMissingField  = "missing_field"
)

var (
	ErrDirectoryLoad = errors.New("region directory could not be loaded")
	ErrUnknownRegion = errors.New("unknown region")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrFetch         = errors.New("transaction fetch failed")
	ErrMissingField  = errors.New("missing field")
)

// KindOf returns the error kind of the first domain error in err's chain.
func KindOf(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

type DirectoryLoadError struct {
	Source string
	Err    error
}

func (e *DirectoryLoadError) Error() string {
	return fmt.Sprintf("load region directory %s: %v", e.Source, e.Err)
}

func (e *DirectoryLoadError) Unwrap() error { return e.Err }

func (e *DirectoryLoadError) Is(target error) bool { return target == ErrDirectoryLoad }

func (e *DirectoryLoadError) Kind() string { return KindDirectoryLoad }

type UnknownRegionError struct {
	Name string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown region %q", e.Name)
}

func (e *UnknownRegionError) Is(target error) bool { return target == ErrUnknownRegion }

func (e *UnknownRegionError) Kind() string { return KindUnknownRegion }

type InvalidPeriodError struct {
	Value  string
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %q: %s", e.Value, e.Reason)
}

func (e *InvalidPeriodError) Is(target error) bool { return target == ErrInvalidPeriod }

func (e *InvalidPeriodError) Kind() string { return KindInvalidPeriod }

// FetchError names the sub-region whose fetch aborted an aggregation run.
type FetchError struct {
	SubRegionCode string
	SubRegionName string
	Err           error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.SubRegionName, e.SubRegionCode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

func (e *FetchError) Kind() string { return KindFetch }

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

func (e *MissingFieldError) Kind() string { return KindMissingField }
