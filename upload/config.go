package upload

// DefaultChunkSize is the size of every chunk but the last: 5 MiB.
const DefaultChunkSize int64 = 5 * 1024 * 1024

// Config holds configuration for the Uploader.
type Config struct {
	// ChunkSize is the number of bytes sent per chunk request.
	// Default: 5 MiB
	ChunkSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
	}
}

// Validate ...
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	return nil
}
