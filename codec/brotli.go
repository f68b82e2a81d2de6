package codec

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
)

func init() {
	RegisterCompressor("brotli", func() (Compressor, error) {
		return brotliCompressor{level: brotli.DefaultCompression}, nil
	})
}

type brotliCompressor struct {
	level int
}

func (brotliCompressor) Name() string {
	return "brotli"
}

func (b brotliCompressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, b.level)
	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (brotliCompressor) Decompress(src []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(src)))
}
