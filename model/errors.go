package model

import (
	"errors"
	"fmt"
)

const validScopes = "argument 1 must be ALL/REGION/GATEWAY/QUEUE/STORE"

var (
	ErrMissingScope    = errors.New("compaction request type was not specified, " + validScopes)
	ErrInvalidScope    = errors.New("invalid compaction request type, " + validScopes)
	ErrNoSuchDiskStore = errors.New("disk store does not exist")

	// ErrScopeArgumentMismatch is returned when a disk store name is given for a scope other
	// than STORE, when STORE comes without one, or when too many arguments are passed.
	ErrScopeArgumentMismatch = fmt.Errorf("%w: disk store name is accepted only with STORE", ErrInvalidScope)

	// ErrDiskStoreNotFound is returned by the runtime when a lookup by name fails.
	ErrDiskStoreNotFound = errors.New("disk store not found")
)
