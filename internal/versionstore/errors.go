package versionstore

import "errors"

// ErrMalformedBlob indicates an encrypted blob's ciphertext or nonce
// field is missing or not valid base64 (spec.md §7 MalformedBlobError).
var ErrMalformedBlob = errors.New("malformed encrypted blob")
