package database

import "errors"

// ErrNotFound is returned by repositories when a document does not
// exist. The billing and rating packages re-export it so their callers
// match on one sentinel.
var ErrNotFound = errors.New("document not found")
