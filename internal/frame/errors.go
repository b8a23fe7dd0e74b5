package frame

import "errors"

var (
	// ErrEmptyTable is returned when a table has no rows or no columns
	ErrEmptyTable = errors.New("frame: table has no rows or columns")

	// ErrShapeMismatch is returned when two tables (or a table and a series) disagree on shape
	ErrShapeMismatch = errors.New("frame: shape mismatch")

	// ErrColumnNotFound is returned when a named column does not exist
	ErrColumnNotFound = errors.New("frame: column not found")

	// ErrDuplicateColumn is returned when a table is built with repeated column names
	ErrDuplicateColumn = errors.New("frame: duplicate column")

	// ErrInvalidWindow is returned for window or lag sizes below 1
	ErrInvalidWindow = errors.New("frame: invalid window size")
)
