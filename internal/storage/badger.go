package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/sirupsen/logrus"

	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/game"
)

const keyPrefix = "snapshot:"

// BadgerStore keeps snapshots in a BadgerDB database under "snapshot:<name>".
type BadgerStore struct {
	db    *badger.DB
	codec *codec
	log   logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) the database in dir.
func OpenBadger(dir string, compress bool, log logrus.FieldLogger) (*BadgerStore, error) {
	c, err := newCodec(compress)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		c.close()
		return nil, faults.WrapStorage("open badger at "+dir, err)
	}
	log.WithField("path", dir).Debug("snapshot database opened")
	return &BadgerStore{db: db, codec: c, log: log}, nil
}

func (s *BadgerStore) ready() error {
	if s.closed {
		return faults.WrapStorage("store is closed", nil)
	}
	return nil
}

func (s *BadgerStore) Save(name string, snap *game.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	data, err := s.codec.encode(snap)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+name), data)
	})
	if err != nil {
		return faults.WrapStorage("save "+name, err)
	}
	s.log.WithFields(logrus.Fields{"name": name, "bytes": len(data)}).Debug("snapshot saved")
	return nil
}

func (s *BadgerStore) Load(name string) (*game.Snapshot, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, faults.NotFoundf(faults.NoLevel, "no snapshot named %q", name)
	}
	if err != nil {
		return nil, faults.WrapStorage("load "+name, err)
	}
	return s.codec.decode(data)
}

func (s *BadgerStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, faults.WrapStorage("list snapshots", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.codec.close()
	if err := s.db.Close(); err != nil {
		return faults.WrapStorage("close badger", err)
	}
	return nil
}
