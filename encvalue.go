package trexio

import (
	"github.com/cespare/xxhash/v2"
)

const (
	valueFormatVer1      = 1
	valueFormatVerLatest = valueFormatVer1
)

type valueFlags uint64

const (
	vfVerBit0 = valueFlags(1 << iota)
	vfVerBit1
	vfVerBit2
	vfVerBit3
	vfCompressionBit0

	vfVerMask       = (vfVerBit0 | vfVerBit1 | vfVerBit2 | vfVerBit3)
	vfVer1          = vfVerBit0
	vfZstd          = vfCompressionBit0
	vfSupportedMask = (vfVerMask | vfZstd)
	vfDefault       = vfVer1

	minValueSize = 6 + 8
	maxRank      = 16

	// maxRawSize bounds the decompressed payload of a single value.
	maxRawSize uint64 = 1 << 36

	// maxRawPrealloc caps the buffer allocated up front for decompression.
	maxRawPrealloc = 64 << 20
)

func (vf valueFlags) ver() valueFlags {
	return vf & vfVerMask
}

// encodeValue appends the binary encoding of v to buf. Payloads of at least
// compressAt bytes are zstd-compressed; compressAt <= 0 disables compression.
//
// Layout: flags, kind, rank, dims..., stored size, raw size (all uvarint),
// then xxhash64 of the header and the stored payload (8 bytes LE), then the
// payload.
func encodeValue(buf []byte, v *value, compressAt int) []byte {
	raw := encodePayload(nil, v)
	flags := vfDefault
	stored := raw
	if compressAt > 0 && len(raw) >= compressAt {
		if c := compressPayload(raw); len(c) < len(raw) {
			stored = c
			flags |= vfZstd
		}
	}

	start := len(buf)
	buf = appendUvarint(buf, uint64(flags))
	buf = appendUvarint(buf, uint64(v.Kind))
	buf = appendUvarint(buf, uint64(len(v.Dims)))
	for _, d := range v.Dims {
		buf = appendUvarint(buf, d)
	}
	buf = appendUvarint(buf, uint64(len(stored)))
	buf = appendUvarint(buf, uint64(len(raw)))
	buf = appendFixedUint64(buf, valueChecksum(buf[start:], stored))
	return appendRaw(buf, stored)
}

func valueChecksum(header, stored []byte) uint64 {
	h := xxhash.New()
	h.Write(header)
	h.Write(stored)
	return h.Sum64()
}

func decodeValue(data []byte) (*value, error) {
	if len(data) < minValueSize {
		return nil, dataErrf(data, 0, nil, "invalid value: at least %d bytes required", minValueSize)
	}
	d := makeByteDecoder(data)

	f, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	flags := valueFlags(f)
	if (flags &^ vfSupportedMask) != 0 {
		return nil, dataErrf(data, 0, nil, "invalid value: unsupported flags %x", f)
	}
	if flags.ver() != valueFormatVerLatest {
		return nil, dataErrf(data, 0, nil, "invalid value: unsupported format version %d", flags.ver())
	}

	k, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	kind := Kind(k)
	if kind != KindInt && kind != KindFloat && kind != KindString {
		return nil, dataErrf(data, d.Off(), nil, "invalid value: bad element kind %d", k)
	}

	rank, err := d.Uvarinti()
	if err != nil {
		return nil, err
	}
	if rank > maxRank {
		return nil, dataErrf(data, d.Off(), nil, "invalid value: rank %d exceeds %d", rank, maxRank)
	}
	var dims []uint64
	if rank > 0 {
		dims = make([]uint64, rank)
		for i := range dims {
			dims[i], err = d.Uvarint()
			if err != nil {
				return nil, err
			}
		}
	}

	storedSize, err := d.Uvarinti()
	if err != nil {
		return nil, err
	}
	rawSize, err := d.Uvarinti()
	if err != nil {
		return nil, err
	}
	headerEnd := d.Off()
	sum, err := d.FixedUint64()
	if err != nil {
		return nil, err
	}
	stored, err := d.Raw(storedSize)
	if err != nil {
		return nil, err
	}
	if len(d.Buf) != 0 {
		return nil, dataErrf(data, d.Off(), nil, "invalid value: %d trailing bytes", len(d.Buf))
	}
	if actual := valueChecksum(data[:headerEnd], stored); actual != sum {
		return nil, dataErrf(data, headerEnd, nil, "invalid value: checksum %016x, expected %016x", actual, sum)
	}

	raw := stored
	if flags&vfZstd != 0 {
		if uint64(rawSize) > maxRawSize {
			return nil, dataErrf(data, 0, nil, "invalid value: raw size %d exceeds %d", rawSize, maxRawSize)
		}
		raw, err = decompressPayload(stored, rawSize)
		if err != nil {
			return nil, err
		}
	}
	if len(raw) != rawSize {
		return nil, dataErrf(data, 0, nil, "invalid value: payload is %d bytes, expected %d", len(raw), rawSize)
	}

	v := &value{Dims: dims}
	if err := decodePayload(raw, kind, v); err != nil {
		return nil, err
	}
	if !v.shapeMatches() {
		return nil, dataErrf(data, 0, nil, "invalid value: %d elements for shape %v", v.Len(), dims)
	}
	return v, nil
}
