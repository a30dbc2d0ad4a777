package scmetab

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

// Compression identifies the compression scheme of an input file, detected
// from its leading magic bytes.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZip
	CompressionXZ
	CompressionBZip2
)

var magicBytes = []struct {
	compression Compression
	signature   []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b, 0x08}},
	{CompressionZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{CompressionXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{CompressionBZip2, []byte{0x42, 0x5a, 0x68}},
}

// DetectCompression reads up to 6 bytes from r and matches them against known
// compression signatures. The consumed bytes are not replaced; callers should
// seek back if they intend to re-read.
func DetectCompression(r io.Reader) (Compression, error) {
	buff := make([]byte, 6)
	if _, err := io.ReadAtLeast(r, buff, 3); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// Too short to carry any known signature.
			return CompressionNone, nil
		}
		return CompressionNone, pfx.Err(err)
	}

Outer:
	for _, candidate := range magicBytes {
		for i, b := range candidate.signature {
			if buff[i] != b {
				continue Outer
			}
		}
		return candidate.compression, nil
	}

	return CompressionNone, nil
}

// OpenFile opens path and, when the file is gzip, zip, xz, or bzip2
// compressed, layers the matching decompressor on top. Closing the returned
// ReadCloser also closes the underlying file.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	compression, err := DetectCompression(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	switch compression {
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}
		return &wrappedReadCloser{Reader: gz, file: f}, nil
	case CompressionZip:
		return &wrappedReadCloser{Reader: zipstream.NewReader(f), file: f}, nil
	case CompressionXZ:
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}
		return &wrappedReadCloser{Reader: xzr, file: f}, nil
	case CompressionBZip2:
		return &wrappedReadCloser{Reader: bzip2.NewReader(f), file: f}, nil
	}

	return f, nil
}

// wrappedReadCloser reads from a decompressor but closes the file beneath it.
type wrappedReadCloser struct {
	io.Reader
	file *os.File
}

func (w *wrappedReadCloser) Close() error {
	return w.file.Close()
}
