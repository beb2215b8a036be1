/*
Package trexio implements a typed container for quantum chemistry data with
two interchangeable storage backends: a single binary file (on top of Bolt)
and a human-readable directory of YAML files.

We implement:

1. A fixed catalog of groups (nucleus, basis, mo, ...) and their fields. Each
field is an int, float or string scalar, or an array of those with a shape
given by constants and dimension scalars such as nucleus.num.

2. Typed reads and writes through field handles (NucleusCoord, BasisNucleusIndex)
that check element counts against the caller's expectation before any data is
copied, plus a dynamic API keyed by group and field name.

3. Exclusive write handles: at most one writer per container, readers share.

# Technical Details

**Dimensions.**
Dimension scalars are write-once and must be written before any array they
govern. A write stores the shape computed from them next to the data; a read
verifies that stored shape against the current dimensions and treats any
disagreement as corruption.

**Canonical form.**
Values are stored as int64, float64 or UTF-8 strings regardless of the Go type
they were written from. Reads convert through a closed table of legal
conversions and never truncate, wrap or round.

**Buffering.**
Writes are buffered in the handle and committed by Flush or Close. Closing a
handle that observed corruption drops its buffered writes.

## Binary backend

One Bolt file. A "_trexio" bucket records the backend kind and format
version; every other bucket is a group, keyed by field name.

**Value**:
1. Flags (uvarint): format version and compression.
2. Element kind (uvarint).
3. Rank (uvarint), then each axis length (uvarint).
4. Stored payload size, raw payload size (uvarint).
5. xxhash64 of items 1-4 followed by the stored payload (8 bytes, little
   endian).
6. Payload: msgpack array of the elements, zstd-compressed when large.

## Text backend

A directory holding ".trexio.yaml" (backend kind and format version), ".lock"
(advisory lock file) and one "<group>.yaml" per group. A group file maps field
names to kind, rank, dims and a list of elements. Floats are written with the
shortest representation that reads back to the same bits, strings are always
double-quoted. Group files are
replaced atomically on flush.
*/
package trexio
