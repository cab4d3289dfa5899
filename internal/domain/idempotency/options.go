package idempotency

// Option applies a configuration option to the in-memory key cache.
type Option func(*inMemoryKeys)

// WithMaxSize bounds the number of remembered keys. Values <= 0 mean unbounded.
func WithMaxSize(maxSize int) Option {
	return func(k *inMemoryKeys) {
		k.maxSize = maxSize
	}
}
