package cache

import "github.com/seu-repo/rentmap-voice/internal/ports"

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = ports.ErrCacheMiss

const keyPrefix = "rentmap:"
