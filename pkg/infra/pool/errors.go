// Package pool runs bounded background work, such as fanned-out health
// checks, on an ants worker pool.
package pool

import "errors"

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolOverload is returned when a nonblocking pool is full.
	ErrPoolOverload = errors.New("pool is overloaded")

	// ErrInvalidPoolConfig is returned for unusable pool configurations.
	ErrInvalidPoolConfig = errors.New("invalid pool config")
)
