package ingest

import "fmt"

// StoreReadError means the vector index or document store could not be read
// while diffing. Fatal for the current file only; the digest cache is left
// untouched so the file is retried on the next run.
type StoreReadError struct {
	Op  string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read failed during %s: %v", e.Op, e.Err)
}

func (e *StoreReadError) Unwrap() error {
	return e.Err
}

// StoreWriteError means a batch write failed. The failing batch and all
// later batches for the file are abandoned; already-applied batches remain,
// which is safe because upserts are idempotent.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed during %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
