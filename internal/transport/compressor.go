package transport

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
}

type GzipCompressor struct {
	level int
}

func NewGzipCompressor() CompressorInterface {
	return &GzipCompressor{level: gzip.BestSpeed}
}

func (g *GzipCompressor) Compress(val []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(val); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
