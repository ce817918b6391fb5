package domain

import "errors"

// ErrTreeNotFound is returned when a tree id is unknown to a registry, server or manager.
var ErrTreeNotFound = errors.New("tree not found")

// ErrSnapshotNotFound is returned when no snapshot is stored for a tree id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrUnknownNodeType is returned when a definition references an unregistered node type.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrInvalidDefinition is returned when a tree definition cannot be built.
var ErrInvalidDefinition = errors.New("invalid tree definition")

// ErrLockAcquire is returned when a distributed lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")
