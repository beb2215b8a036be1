package trexio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/andreyvit/trexio/fileio"
	"gopkg.in/yaml.v3"
)

const (
	textMarkerName = ".trexio.yaml"
	textLockName   = ".lock"
	textGroupExt   = ".yaml"
)

// textStorage keeps a container as a directory with one YAML file per group.
// Groups are loaded on first access and rewritten whole on Flush.
type textStorage struct {
	dir      string
	writable bool
	durable  bool
	lock     *fileio.Lock // nil for lockless reads
	groups   map[string]textGroup
	dirty    map[string]bool
	released bool
}

func openTextStorage(path string, mode Mode, o *Options) (storage, error) {
	writable := mode.Writable()
	st, err := os.Stat(path)
	switch {
	case err == nil && !st.IsDir():
		return nil, openErrf(path, BackendText, ErrBackendMismatch, nil, "path is a file, not a text container")
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, openErrf(path, BackendText, ErrBackendIO, err, "")
	case err != nil && !writable:
		return nil, openErrf(path, BackendText, ErrBackendIO, err, "container does not exist")
	case err != nil:
		if err := os.MkdirAll(path, 0777); err != nil {
			return nil, openErrf(path, BackendText, ErrBackendIO, err, "")
		}
	}

	hasMarker, err := checkTextMarker(path)
	if err != nil {
		return nil, err
	}
	if !hasMarker {
		if !writable {
			return nil, openErrf(path, BackendText, ErrBackendMismatch, nil, "directory is not a trexio container")
		}
		if err := ensureAdoptableDir(path); err != nil {
			return nil, err
		}
	}

	s := &textStorage{
		dir:      path,
		writable: writable,
		durable:  !o.NoSync,
		groups:   make(map[string]textGroup),
		dirty:    make(map[string]bool),
	}

	s.lock, err = fileio.Acquire(filepath.Join(path, textLockName), writable, writable)
	switch {
	case err == nil:
	case errors.Is(err, fileio.ErrLocked):
		return nil, openErrf(path, BackendText, ErrLockConflict, nil, "")
	case !writable && errors.Is(err, fs.ErrNotExist):
		o.Logger.Debug("trexio: text container has no lock file, reading without a lock", "path", path)
	default:
		return nil, openErrf(path, BackendText, ErrBackendIO, err, "lock")
	}

	if err := s.init(mode, hasMarker); err != nil {
		s.lock.Release()
		return nil, err
	}
	return s, nil
}

// checkTextMarker reports whether dir carries a valid container marker.
func checkTextMarker(dir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, textMarkerName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, openErrf(dir, BackendText, ErrBackendIO, err, "marker")
	}

	var m textMarker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return false, openErrf(dir, BackendText, ErrCorrupt, err, "marker")
	}
	switch {
	case m.Backend != BackendText.String():
		return false, openErrf(dir, BackendText, ErrBackendMismatch, nil, "container backend is %q", m.Backend)
	case m.Format < 1:
		return false, openErrf(dir, BackendText, ErrCorrupt, nil, "bad format version %d", m.Format)
	case m.Format > textFormatVer:
		return false, openErrf(dir, BackendText, ErrBackendMismatch, nil, "format version %d is newer than supported %d", m.Format, textFormatVer)
	}
	return true, nil
}

// ensureAdoptableDir refuses to turn a directory with foreign content into a
// container.
func ensureAdoptableDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return openErrf(dir, BackendText, ErrBackendIO, err, "")
	}
	for _, e := range entries {
		if e.Name() != textLockName {
			return openErrf(dir, BackendText, ErrBackendMismatch, nil, "directory is not empty and has no %s", textMarkerName)
		}
	}
	return nil
}

func (s *textStorage) init(mode Mode, hasMarker bool) error {
	if !hasMarker {
		data, err := yaml.Marshal(&textMarker{Backend: BackendText.String(), Format: textFormatVer})
		if err != nil {
			panic(err)
		}
		if err := fileio.WriteFileAtomic(filepath.Join(s.dir, textMarkerName), data, 0666, s.durable); err != nil {
			return openErrf(s.dir, BackendText, ErrBackendIO, err, "marker")
		}
	}
	if mode != ModeWrite {
		return nil
	}

	names, err := s.groupFiles()
	if err != nil {
		return openErrf(s.dir, BackendText, ErrBackendIO, err, "")
	}
	for _, name := range names {
		if err := os.Remove(s.groupPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return openErrf(s.dir, BackendText, ErrBackendIO, err, "truncate")
		}
	}
	if len(names) > 0 && s.durable {
		if err := fileio.SyncDir(s.dir); err != nil {
			return openErrf(s.dir, BackendText, ErrBackendIO, err, "truncate")
		}
	}
	return nil
}

func (s *textStorage) groupPath(group string) string {
	return filepath.Join(s.dir, group+textGroupExt)
}

// groupFiles lists the groups that have a file on disk.
func (s *textStorage) groupFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, textGroupExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, textGroupExt))
	}
	return names, nil
}

func (s *textStorage) loadGroup(group string) (textGroup, error) {
	if g, ok := s.groups[group]; ok {
		return g, nil
	}
	data, err := os.ReadFile(s.groupPath(group))
	var g textGroup
	if errors.Is(err, fs.ErrNotExist) {
		g = make(textGroup)
	} else if err != nil {
		return nil, err
	} else {
		g, err = decodeTextGroup(data)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", group, textGroupExt, err)
		}
	}
	s.groups[group] = g
	return g, nil
}

func (s *textStorage) Put(group, field string, v *value) error {
	if !s.writable {
		return ErrInvalidMode
	}
	g, err := s.loadGroup(group)
	if err != nil {
		return err
	}
	g[field] = textFieldFromValue(v)
	s.dirty[group] = true
	return nil
}

func (s *textStorage) Get(group, field string) (*value, error) {
	g, err := s.loadGroup(group)
	if err != nil {
		return nil, err
	}
	tf := g[field]
	if tf == nil {
		return nil, nil
	}
	v, err := tf.value()
	if err != nil {
		return nil, fmt.Errorf("%s%s: %s: %w", group, textGroupExt, field, err)
	}
	return v, nil
}

func (s *textStorage) Exists(group, field string) (bool, error) {
	g, err := s.loadGroup(group)
	if err != nil {
		return false, err
	}
	return g[field] != nil, nil
}

func (s *textStorage) Groups() ([]string, error) {
	names, err := s.groupFiles()
	if err != nil {
		return nil, err
	}
	return mergeSorted(names, sortedKeys(s.dirty)), nil
}

func (s *textStorage) Fields(group string) ([]string, error) {
	g, err := s.loadGroup(group)
	if err != nil {
		return nil, err
	}
	return sortedKeys(g), nil
}

func (s *textStorage) Flush() error {
	for _, group := range sortedKeys(s.dirty) {
		data, err := encodeTextGroup(s.groups[group])
		if err != nil {
			return fmt.Errorf("%s%s: %w", group, textGroupExt, err)
		}
		if err := fileio.WriteFileAtomic(s.groupPath(group), data, 0666, s.durable); err != nil {
			return err
		}
		delete(s.dirty, group)
	}
	return nil
}

func (s *textStorage) Release() error {
	if s.released {
		return nil
	}
	var err error
	if s.writable {
		err = s.Flush()
	}
	s.released = true
	if lerr := s.lock.Release(); err == nil {
		err = lerr
	}
	return err
}

func (s *textStorage) Abandon() error {
	if s.released {
		return nil
	}
	s.released = true
	s.groups, s.dirty = nil, nil
	return s.lock.Release()
}
