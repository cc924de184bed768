package exception

import "github.com/yanun0323/errors"

// Signing and key-provider errors. Provider failures keep their own
// sentinel so callers can tell "key absent" from "backend unreachable".
var (
	ErrInvalidLength       = errors.New("key: invalid length")
	ErrKeyNotFound         = errors.New("key: not found")
	ErrProviderUnavailable = errors.New("key: provider unavailable")
	ErrPermissionDenied    = errors.New("key: permission denied")
	ErrEmptyKeyID          = errors.New("key: empty key id")
)
