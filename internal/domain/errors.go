package domain

import "errors"

var (
	// ErrInvalidGrid is returned for grids that cannot be used as a warp target.
	ErrInvalidGrid = errors.New("invalid grid")

	// ErrInvalidResampling is returned for unknown resampling names.
	ErrInvalidResampling = errors.New("invalid resampling method")

	// ErrInvalidSource is returned for unknown data source names.
	ErrInvalidSource = errors.New("invalid data source")

	// ErrTileNotFound is returned when a tile listed by the index has no local file.
	ErrTileNotFound = errors.New("tile file not found")

	// ErrDownloadFailed is returned when the archive transfer left no file behind.
	ErrDownloadFailed = errors.New("download failed")
)
