// Package store provides the persistence gateway for engine state: an
// opaque namespaced key-value store holding JSON blobs. The engine never
// assumes anything about the backend beyond get/set/delete.
package store

import "context"

// Gateway is the key-value persistence boundary.
//
// Get unmarshals the stored blob into out and reports whether the key
// existed. A missing key is not an error; callers fall back to defaults.
// Set marshals value and stores it under key, overwriting any prior blob.
type Gateway interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
