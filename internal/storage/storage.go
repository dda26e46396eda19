// Package storage keeps session snapshots on disk, either as plain files or in
// a BadgerDB database.
package storage

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"github.com/samdwyer/caves/internal/config"
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/game"
)

// Store saves and loads snapshots by name.
type Store interface {
	Save(name string, snap *game.Snapshot) error
	// Load returns a NotFound error when no snapshot has the name.
	Load(name string) (*game.Snapshot, error)
	// List returns the saved names in sorted order.
	List() ([]string, error)
	Close() error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func checkName(name string) error {
	if !validName.MatchString(name) {
		return faults.InvalidConfigf("snapshot name %q: use letters, digits, '.', '_' and '-'", name)
	}
	return nil
}

// Open creates the store selected by cfg.
func Open(cfg config.StorageConfig, log logrus.FieldLogger) (Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return OpenBadger(cfg.Path, cfg.Compress, log)
	case config.BackendFile, "":
		return NewFileStore(cfg.Path, cfg.Compress)
	default:
		return nil, faults.InvalidConfigf("unknown storage backend %q", cfg.Backend)
	}
}

// zstdMagic starts every zstd frame, so compressed and plain snapshots can
// be told apart when reading.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// codec turns snapshots into bytes and back. Reading accepts both compressed
// and plain data whatever the compress setting.
type codec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

func newCodec(compress bool) (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, faults.WrapStorage("create compressor", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, faults.WrapStorage("create decompressor", err)
	}
	return &codec{compress: compress, enc: enc, dec: dec}, nil
}

func (c *codec) encode(snap *game.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, faults.WrapStorage("encode snapshot", err)
	}
	if c.compress {
		data = c.enc.EncodeAll(data, nil)
	}
	return data, nil
}

func (c *codec) decode(data []byte) (*game.Snapshot, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := c.dec.DecodeAll(data, nil)
		if err != nil {
			return nil, faults.WrapStorage("decompress snapshot", err)
		}
		data = plain
	}

	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, faults.WrapStorage("decode snapshot", err)
	}
	return &snap, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}
