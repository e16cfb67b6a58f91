package bigsi

import "fmt"

// ErrInvalidParameter indicates a zero construction parameter.
type ErrInvalidParameter struct {
	Name  string
	Value uint
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("bigsi: parameter %s must be positive, got %d", e.Name, e.Value)
}

// ErrAccessionOutOfRange indicates an insert for an accession slot the
// index does not have. Accession slots are the dense range
// [0, AccessionCount) and grow only through Merge.
type ErrAccessionOutOfRange struct {
	Accession      uint
	AccessionCount uint
}

func (e *ErrAccessionOutOfRange) Error() string {
	return fmt.Sprintf("bigsi: accession %d out of range [0, %d)", e.Accession, e.AccessionCount)
}

// ErrParameterMismatch indicates a merge between indexes built with
// different parameters. Field names the mismatched parameter ("numHashes"
// or "rows"). Merging such indexes would misalign every row, so the merge
// is rejected before any mutation.
type ErrParameterMismatch struct {
	Field string
	Self  uint
	Other uint
}

func (e *ErrParameterMismatch) Error() string {
	return fmt.Sprintf("bigsi: cannot merge, %s mismatch: %d != %d", e.Field, e.Self, e.Other)
}
