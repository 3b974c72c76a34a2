package mesh

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec selects the compression applied to compiled mesh archives.
type Codec uint8

const (
	CodecZstd Codec = iota + 1
	CodecSnappy
)

// Compiled archives start with this magic followed by a codec byte.
var archiveMagic = [4]byte{'M', 'B', 'V', 'H'}

var (
	ErrUnknownCodec = errors.New("mesh: unknown codec")
	ErrBadMagic     = errors.New("mesh: not a compiled mesh archive")
)

func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecSnappy:
		return "snappy"
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

// Parse a codec name (case insensitive).
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "zstd", "":
		return CodecZstd, nil
	case "snappy":
		return CodecSnappy, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownCodec, name)
}

// Wrap w with a compressor for this codec. Closing the returned writer
// flushes the compressed stream but does not close w.
func (c Codec) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	case CodecSnappy:
		return snappy.NewBufferedWriter(w), nil
	}
	return nil, fmt.Errorf("%w %d", ErrUnknownCodec, uint8(c))
}

// Wrap r with a decompressor for this codec.
func (c Codec) newReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CodecSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	}
	return nil, fmt.Errorf("%w %d", ErrUnknownCodec, uint8(c))
}
