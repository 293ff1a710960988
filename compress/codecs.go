package compress

import (
	"compress/bzip2"
	"compress/flate"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

func builtinEntries() []Entry {
	return []Entry{
		{
			Codec:         None,
			NewWriter:     func(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil },
			NewReader:     func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(r), nil },
			EncodeSupported: true,
		},
		{
			Codec:           Gzip,
			MIMEEncoding:    "gzip",
			FileExtension:   ".gz",
			MagicBytes:      []byte{0x1f, 0x8b},
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil },
			NewReader: func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) },
		},
		{
			Codec:           Deflate,
			MIMEEncoding:    "deflate",
			FileExtension:   ".zz",
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) { return flate.NewWriter(w, flate.DefaultCompression) },
			NewReader: func(r io.Reader) (io.ReadCloser, error) { return flate.NewReader(r), nil },
		},
		{
			Codec:           Zstd,
			MIMEEncoding:    "zstd",
			FileExtension:   ".zst",
			MagicBytes:      []byte{0x28, 0xb5, 0x2f, 0xfd},
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(w) },
			NewReader: func(r io.Reader) (io.ReadCloser, error) {
				d, err := zstd.NewReader(r)
				if err != nil {
					return nil, err
				}
				return d.IOReadCloser(), nil
			},
		},
		{
			Codec:           Brotli,
			MIMEEncoding:    "br",
			FileExtension:   ".br",
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) {
				return brotli.NewWriter(w), nil
			},
			NewReader: func(r io.Reader) (io.ReadCloser, error) {
				return io.NopCloser(brotli.NewReader(r)), nil
			},
		},
		{
			Codec:           LZ4,
			FileExtension:   ".lz4",
			MagicBytes:      []byte{0x04, 0x22, 0x4d, 0x18},
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) { return lz4.NewWriter(w), nil },
			NewReader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(lz4.NewReader(r)), nil },
		},
		{
			Codec:           Snappy,
			FileExtension:   ".snappy",
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) { return snappy.NewBufferedWriter(w), nil },
			NewReader: func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(snappy.NewReader(r)), nil },
		},
		{
			Codec:           XZ,
			FileExtension:   ".xz",
			MagicBytes:      []byte{0xfd, '7', 'z', 'X', 'Z', 0x00},
			EncodeSupported: true,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) },
			NewReader: func(r io.Reader) (io.ReadCloser, error) {
				x, err := xz.NewReader(r)
				if err != nil {
					return nil, err
				}
				return io.NopCloser(x), nil
			},
		},
		{
			// bzip2 has no encoder in Go's standard library and no
			// example repo carries a bzip2 writer, so this entry is
			// decode-only; NewWriter returns an error immediately
			// rather than silently no-op compressing.
			Codec:           Bzip2,
			FileExtension:   ".bz2",
			MagicBytes:      []byte{'B', 'Z', 'h'},
			EncodeSupported: false,
			NewWriter: func(w io.Writer) (io.WriteCloser, error) {
				return nil, errBzip2EncodeUnsupported
			},
			NewReader: func(r io.Reader) (io.ReadCloser, error) {
				return io.NopCloser(bzip2.NewReader(r)), nil
			},
		},
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

var errBzip2EncodeUnsupported = bytesErr("bzip2 compression is decode-only")

type bytesErr string

func (e bytesErr) Error() string { return string(e) }
