package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Compressor shrinks serialized values before they are stored.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// CompressorFactory is a constructor function that creates a Compressor.
type CompressorFactory func() (Compressor, error)

// NoCompression is the configuration name that disables compression.
const NoCompression = "none"

var (
	mu          sync.RWMutex
	compressors = make(map[string]CompressorFactory)
)

// RegisterCompressor registers a compressor under the given name.
// It panics if the name is already registered or the factory is nil.
func RegisterCompressor(name string, f CompressorFactory) {
	mu.Lock()
	defer mu.Unlock()

	if f == nil {
		panic("codec: RegisterCompressor factory is nil")
	}
	if name == "" || name == NoCompression {
		panic(fmt.Sprintf("codec: compressor name %q is reserved", name))
	}
	if _, exists := compressors[name]; exists {
		panic(fmt.Sprintf("codec: compressor %q already registered", name))
	}
	compressors[name] = f
}

// NewCompressor creates the named compressor. An empty name or "none"
// returns a nil Compressor and no error.
func NewCompressor(name string) (Compressor, error) {
	if name == "" || name == NoCompression {
		return nil, nil
	}

	mu.RLock()
	f, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("codec: unknown compressor %q (registered: %v)", name, RegisteredCompressors())
	}
	return f()
}

// RegisteredCompressors returns a sorted list of registered compressor names.
func RegisteredCompressors() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
