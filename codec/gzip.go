package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

func init() {
	RegisterCompressor("gzip", func() (Compressor, error) {
		return gzipCompressor{}, nil
	})
}

type gzipCompressor struct{}

func (gzipCompressor) Name() string {
	return "gzip"
}

func (gzipCompressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Decompress(src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
