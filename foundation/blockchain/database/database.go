// Package database handles the lower level support for the maintenance
// chain: the block model, its canonical encoding, proof of work and the
// storage contract every block store implements.
package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrChainEmpty is returned by LatestBlock when no blocks have been stored.
var ErrChainEmpty = errors.New("chain is empty")

// ErrBlockNotFound is returned by GetBlock when the block doesn't exist.
var ErrBlockNotFound = errors.New("block not found")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Storage interface {
	Write(ctx context.Context, block Block) error
	GetBlock(ctx context.Context, index uint64) (Block, error)
	LatestBlock(ctx context.Context) (Block, error)
	ReadAll(ctx context.Context) ([]Block, error)
	Close() error
}

// =============================================================================

// StoreError is used to report a failure in the underlying storage. The
// ledger doesn't retry, the caller decides what to do.
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError wraps the storage error with the operation that failed.
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Error implements the error interface.
func (se *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s", se.Op, se.Err)
}

// Unwrap provides access to the storage error.
func (se *StoreError) Unwrap() error {
	return se.Err
}

// IsStoreError checks if an error of type StoreError exists.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
