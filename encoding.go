package trexio

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(maxRawSize))
)

// encodePayload appends the MsgPack encoding of v's elements to buf.
func encodePayload(buf []byte, v *value) []byte {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	var err error
	switch v.Kind {
	case KindInt:
		err = enc.Encode(v.Ints)
	case KindFloat:
		err = enc.Encode(v.Floats)
	case KindString:
		err = enc.Encode(v.Strs)
	default:
		err = fmt.Errorf("unsupported element kind %v", v.Kind)
	}
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode %v payload using MsgPack: %w", v.Kind, err))
	}
	return bb.Buf
}

// decodePayload decodes MsgPack-encoded elements of the given kind into v.
func decodePayload(buf []byte, kind Kind, v *value) error {
	var r bytes.Reader
	r.Reset(buf)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	defer msgpack.PutDecoder(dec)

	var err error
	v.Kind = kind
	switch kind {
	case KindInt:
		err = dec.Decode(&v.Ints)
		if v.Ints == nil {
			v.Ints = []int64{}
		}
	case KindFloat:
		err = dec.Decode(&v.Floats)
		if v.Floats == nil {
			v.Floats = []float64{}
		}
	case KindString:
		err = dec.Decode(&v.Strs)
		if v.Strs == nil {
			v.Strs = []string{}
		}
	default:
		return dataErrf(buf, 0, nil, "unsupported element kind %d", kind)
	}
	if err != nil {
		return dataErrf(buf, 0, err, "failed to decode msgpack %v payload", kind)
	}
	if r.Len() != 0 {
		return dataErrf(buf, len(buf)-r.Len(), nil, "trailing bytes after %v payload", kind)
	}
	return nil
}

func compressPayload(raw []byte) []byte {
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

func decompressPayload(data []byte, rawSize int) ([]byte, error) {
	raw, err := zstdDecoder.DecodeAll(data, make([]byte, 0, min(rawSize, maxRawPrealloc)))
	if err != nil {
		return nil, dataErrf(data, 0, err, "zstd")
	}
	return raw, nil
}
