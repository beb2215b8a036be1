package trexio

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"go.etcd.io/bbolt"
)

const binaryFormatVer = 1

var (
	metaBucket     = []byte("_trexio")
	metaKeyBackend = []byte("backend")
	metaKeyFormat  = []byte("format")
)

// binaryStorage keeps a container in a single bbolt file: one bucket per
// group, one key per field, values encoded by encodeValue. Writes are
// buffered and committed in a single transaction on Flush.
type binaryStorage struct {
	bdb        *bbolt.DB
	path       string
	writable   bool
	compressAt int
	pending    pendingWrites
}

func openBinaryStorage(path string, mode Mode, o *Options) (storage, error) {
	st, err := os.Stat(path)
	switch {
	case err == nil && st.IsDir():
		return nil, openErrf(path, BackendBinary, ErrBackendMismatch, nil, "path is a directory, not a binary container")
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, openErrf(path, BackendBinary, ErrBackendIO, err, "")
	case err != nil && mode == ModeRead:
		return nil, openErrf(path, BackendBinary, ErrBackendIO, err, "container does not exist")
	}

	bopt := *bbolt.DefaultOptions
	bopt.Timeout = o.LockTimeout
	bopt.ReadOnly = !mode.Writable()
	bopt.NoSync = o.NoSync
	bopt.NoFreelistSync = o.NoSync
	bopt.FreelistType = bbolt.FreelistMapType

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, openErrf(path, BackendBinary, classifyBoltOpenErr(err), err, "")
	}

	s := &binaryStorage{
		bdb:        bdb,
		path:       path,
		writable:   mode.Writable(),
		compressAt: o.CompressThreshold,
	}
	if err := s.init(mode); err != nil {
		bdb.Close()
		return nil, err
	}
	return s, nil
}

func classifyBoltOpenErr(err error) error {
	switch {
	case errors.Is(err, bbolt.ErrTimeout):
		return ErrLockConflict
	case errors.Is(err, bbolt.ErrInvalid), errors.Is(err, bbolt.ErrVersionMismatch):
		return ErrBackendMismatch
	case errors.Is(err, bbolt.ErrChecksum):
		return ErrCorrupt
	default:
		return ErrBackendIO
	}
}

// init validates the container marker, creating it for new containers and
// dropping all groups in ModeWrite.
func (s *binaryStorage) init(mode Mode) error {
	if !s.writable {
		return s.bdb.View(func(tx *bbolt.Tx) error {
			return s.checkMeta(tx.Bucket(metaBucket))
		})
	}

	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		var names [][]byte
		err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if string(name) != string(metaBucket) {
				names = append(names, slices.Clone(name))
			}
			return nil
		})
		if err != nil {
			return err
		}

		if meta == nil {
			if len(names) != 0 {
				return openErrf(s.path, BackendBinary, ErrBackendMismatch, nil, "bolt file is not a trexio container")
			}
			meta, err = tx.CreateBucket(metaBucket)
			if err != nil {
				return err
			}
			if err := meta.Put(metaKeyBackend, []byte(BackendBinary.String())); err != nil {
				return err
			}
			return meta.Put(metaKeyFormat, []byte(strconv.Itoa(binaryFormatVer)))
		}

		if err := s.checkMeta(meta); err != nil {
			return err
		}
		if mode == ModeWrite {
			for _, name := range names {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}
		return nil
	})
	var oe *OpenError
	if errors.As(err, &oe) {
		return err
	} else if err != nil {
		return openErrf(s.path, BackendBinary, category(err, ErrBackendIO), err, "init")
	}
	return nil
}

func (s *binaryStorage) checkMeta(meta *bbolt.Bucket) error {
	if meta == nil {
		return openErrf(s.path, BackendBinary, ErrBackendMismatch, nil, "bolt file is not a trexio container")
	}
	if b := string(meta.Get(metaKeyBackend)); b != BackendBinary.String() {
		return openErrf(s.path, BackendBinary, ErrBackendMismatch, nil, "container backend is %q", b)
	}
	ver, err := strconv.Atoi(string(meta.Get(metaKeyFormat)))
	if err != nil || ver < 1 {
		return openErrf(s.path, BackendBinary, ErrCorrupt, err, "bad format version")
	}
	if ver > binaryFormatVer {
		return openErrf(s.path, BackendBinary, ErrBackendMismatch, nil, "format version %d is newer than supported %d", ver, binaryFormatVer)
	}
	return nil
}

func (s *binaryStorage) Put(group, field string, v *value) error {
	if !s.writable {
		return ErrInvalidMode
	}
	s.pending.put(group, field, v)
	return nil
}

func (s *binaryStorage) Get(group, field string) (*value, error) {
	if v := s.pending.get(group, field); v != nil {
		return v, nil
	}
	var raw []byte
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket([]byte(group)); b != nil {
			// copy out of the mmap before the transaction ends
			raw = slices.Clone(b.Get([]byte(field)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return decodeValue(raw)
}

func (s *binaryStorage) Exists(group, field string) (bool, error) {
	if s.pending.get(group, field) != nil {
		return true, nil
	}
	var found bool
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket([]byte(group)); b != nil {
			found = b.Get([]byte(field)) != nil
		}
		return nil
	})
	return found, err
}

func (s *binaryStorage) Groups() ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if string(name) != string(metaBucket) {
				names = append(names, string(name))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return mergeSorted(names, s.pending.groupNames()), nil
}

func (s *binaryStorage) Fields(group string) ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(group))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return mergeSorted(names, s.pending.fieldNames(group)), nil
}

func (s *binaryStorage) Flush() error {
	if s.pending.empty() {
		return nil
	}
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		for _, group := range s.pending.groupNames() {
			b, err := tx.CreateBucketIfNotExists([]byte(group))
			if err != nil {
				return err
			}
			for _, field := range s.pending.fieldNames(group) {
				v := s.pending.get(group, field)
				if err := b.Put([]byte(field), encodeValue(nil, v, s.compressAt)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.pending.reset()
	return nil
}

func (s *binaryStorage) Release() error {
	if s.bdb == nil {
		return nil
	}
	var err error
	if s.writable {
		err = s.Flush()
	}
	if cerr := s.bdb.Close(); err == nil {
		err = cerr
	}
	s.bdb = nil
	return err
}

func (s *binaryStorage) Abandon() error {
	if s.bdb == nil {
		return nil
	}
	s.pending.reset()
	err := s.bdb.Close()
	s.bdb = nil
	return err
}
