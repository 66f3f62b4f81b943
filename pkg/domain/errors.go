package domain

import "errors"

// ErrTypeNotFound is returned when a type name has not been registered.
var ErrTypeNotFound = errors.New("type not found")

// ErrTypeExists is returned when a type name is registered twice.
var ErrTypeExists = errors.New("type already registered")

// ErrFieldMismatch is returned when field values do not match the type's field layout.
var ErrFieldMismatch = errors.New("field mismatch")

// ErrNotFound is returned for unknown instance ids, names and subscription handles.
var ErrNotFound = errors.New("not found")

// ErrNameInUse is returned when a live instance already has the requested name.
var ErrNameInUse = errors.New("instance name in use")

// ErrScopeAlreadyOpen is returned when an update scope is already open on the instance.
var ErrScopeAlreadyOpen = errors.New("update scope already open")

// ErrScopeNotOpen is returned when closing an update scope that was never opened.
var ErrScopeNotOpen = errors.New("update scope not open")

// ErrReentrantHookCall is returned when a hook or observer callback calls back
// into the engine for the instance it is being invoked for.
var ErrReentrantHookCall = errors.New("reentrant hook call")

// ErrSnapshotNotFound is returned by snapshot stores for unknown instance ids.
var ErrSnapshotNotFound = errors.New("snapshot not found")
