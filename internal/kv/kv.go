// Package kv provides the synchronous key-value persistence used by the client:
// string values addressed by string keys, with an in-memory and a SQLite backend.
package kv

import "errors"

// ErrQuotaExceeded is returned by Set when the backend has no room for the value.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// Store is the key-value capability. Get reports ok=false for an absent key.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}
