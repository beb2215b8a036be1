package trexio

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpGroupHeaders = DumpFlags(1 << iota)
	DumpValues
	DumpShapes

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)

	maxDumpElems = 8
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the stored contents of the container for debugging. Fields
// unknown to the schema are listed but not decoded.
func (f *File) Dump(flags DumpFlags) (string, error) {
	if err := f.checkUsable("dump", nil); err != nil {
		return "", err
	}
	groups, err := f.store.Groups()
	if err != nil {
		return "", openErrf(f.path, f.backend, category(err, ErrBackendIO), err, "dump")
	}

	var buf strings.Builder
	for i, group := range groups {
		if err := f.dumpGroup(&buf, flags, group, i+1, len(groups)); err != nil {
			return buf.String(), err
		}
	}
	return buf.String(), nil
}

func (f *File) dumpGroup(w *strings.Builder, flags DumpFlags, group string, pos, count int) error {
	fields, err := f.store.Fields(group)
	if err != nil {
		return openErrf(f.path, f.backend, category(err, ErrBackendIO), err, "dump %s", group)
	}
	if flags.Contains(DumpGroupHeaders) {
		if pos > 1 {
			fmt.Fprintln(w, dumpSep2)
		} else {
			fmt.Fprintln(w, dumpSep1)
		}
		fmt.Fprintf(w, "%s (%d fields, %d/%d)\n", group, len(fields), pos, count)
	}

	for _, name := range fields {
		fd, _ := f.schema.Resolve(group, name)
		v, err := f.store.Get(group, name)
		switch {
		case err != nil:
			fmt.Fprintf(w, "%s.%s ** ERROR: %v\n", group, name, err)
			continue
		case v == nil:
			continue
		}
		prefix := group + "." + name
		if fd == nil {
			prefix += " (unknown)"
		}
		if flags.Contains(DumpShapes) && v.Rank() > 0 {
			prefix += fmt.Sprint(v.Dims)
		}
		if flags.Contains(DumpValues) {
			fmt.Fprintf(w, "%s = %s\n", prefix, dumpElems(v))
		} else {
			fmt.Fprintln(w, prefix)
		}
	}
	return nil
}

func dumpElems(v *value) string {
	var elems []string
	n := v.Len()
	for i := range min(n, maxDumpElems) {
		switch v.Kind {
		case KindInt:
			elems = append(elems, fmt.Sprint(v.Ints[i]))
		case KindFloat:
			elems = append(elems, formatTextFloat(v.Floats[i]))
		case KindString:
			elems = append(elems, fmt.Sprintf("%q", v.Strs[i]))
		}
	}
	if v.Rank() == 0 && n == 1 {
		return elems[0]
	}
	s := strings.Join(elems, " ")
	if n > maxDumpElems {
		s += fmt.Sprintf(" ... (%d more)", n-maxDumpElems)
	}
	return "[" + s + "]"
}
