package catalog

import "errors"

var (
	// ErrInvalidSource is returned when a catalog source does not parse or
	// lacks the top-level images map.
	ErrInvalidSource = errors.New("invalid catalog source")

	// ErrInvalidDefinition is returned when a merged image block fails
	// validation.
	ErrInvalidDefinition = errors.New("invalid image definition")

	// ErrImageNotFound is returned when an image name is not in the catalog.
	ErrImageNotFound = errors.New("image not found in catalog")

	// ErrGroupNotFound is returned when a group name is not in the catalog.
	ErrGroupNotFound = errors.New("group not found in catalog")
)
