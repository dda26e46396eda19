package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/game"
)

const snapshotExt = ".snap"

// FileStore keeps one file per snapshot in a directory.
type FileStore struct {
	dir   string
	codec *codec
}

// NewFileStore creates the directory if needed. With compress set, snapshots
// are written zstd-compressed.
func NewFileStore(dir string, compress bool) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, faults.WrapStorage("create "+dir, err)
	}
	c, err := newCodec(compress)
	if err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, codec: c}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+snapshotExt)
}

// Save writes to a temporary file first so a crash never leaves half a snapshot.
func (s *FileStore) Save(name string, snap *game.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := s.codec.encode(snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return faults.WrapStorage("save "+name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return faults.WrapStorage("save "+name, err)
	}
	if err := tmp.Close(); err != nil {
		return faults.WrapStorage("save "+name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return faults.WrapStorage("save "+name, err)
	}
	return nil
}

func (s *FileStore) Load(name string) (*game.Snapshot, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, faults.NotFoundf(faults.NoLevel, "no snapshot named %q", name)
	}
	if err != nil {
		return nil, faults.WrapStorage("load "+name, err)
	}
	return s.codec.decode(data)
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, faults.WrapStorage("list "+s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close() error {
	s.codec.close()
	return nil
}
