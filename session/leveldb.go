// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
)

// database layout
const (
	recordPrefix       = 'S'
	currentVersion     = 0x100
	sessionLoggerName  = "session"
	lastIdKeyCharacter = 'N'
)

var (
	versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}
	lastIdKey  = []byte{0x00, lastIdKeyCharacter}
)

type levelDB struct {
	sync.Mutex
	log *logger.L
	db  *leveldb.DB
}

// NewLevelDB - open or create a persistent store
func NewLevelDB(database string) (Store, error) {
	log := logger.New(sessionLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
		ReadOnly:       false,
	}

	db, err := leveldb.OpenFile(database, opt)
	if nil != err {
		return nil, err
	}

	version, err := getVersion(db)
	if nil != err {
		db.Close()
		return nil, err
	}

	switch {
	case 0 == version:
		if err := putVersion(db, currentVersion); nil != err {
			db.Close()
			return nil, err
		}
	case version > currentVersion:
		db.Close()
		log.Criticalf("session database version: %d > current version: %d", version, currentVersion)
		return nil, fmt.Errorf("session database version: %d > current version: %d", version, currentVersion)
	}

	log.Infof("opened: %q  version: %d", database, currentVersion)

	return &levelDB{
		log: log,
		db:  db,
	}, nil
}

func getVersion(db *leveldb.DB) (int, error) {
	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return 0, nil
	} else if nil != err {
		return 0, err
	}
	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}
	return int(binary.BigEndian.Uint32(versionValue)), nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))
	return db.Put(versionKey, currentVersion, nil)
}

func recordKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = recordPrefix
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

func (l *levelDB) get(id uint64) (*Record, error) {
	value, err := l.db.Get(recordKey(id), nil)
	if leveldb.ErrNotFound == err {
		return nil, fault.ErrNotFound
	} else if nil != err {
		return nil, err
	}

	var r Record
	if err := json.Unmarshal(value, &r); nil != err {
		return nil, err
	}
	return &r, nil
}

func (l *levelDB) put(batch *leveldb.Batch, r *Record) error {
	value, err := json.Marshal(r)
	if nil != err {
		return err
	}
	batch.Put(recordKey(r.LocalId), value)
	return nil
}

func (l *levelDB) Create(record *Record) (uint64, error) {
	if nil == record {
		return 0, fault.ErrMissingParameters
	}

	l.Lock()
	defer l.Unlock()

	lastId := uint64(0)
	value, err := l.db.Get(lastIdKey, nil)
	if nil == err && 8 == len(value) {
		lastId = binary.BigEndian.Uint64(value)
	} else if nil != err && leveldb.ErrNotFound != err {
		return 0, err
	}

	r := record.clone()
	r.LocalId = lastId + 1

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, r.LocalId)

	batch := new(leveldb.Batch)
	batch.Put(lastIdKey, next)
	if err := l.put(batch, r); nil != err {
		return 0, err
	}
	if err := l.db.Write(batch, nil); nil != err {
		return 0, err
	}

	l.log.Debugf("created: %d  address: %q", r.LocalId, r.TransportAddress)
	return r.LocalId, nil
}

func (l *levelDB) FindByLocalId(id uint64) (*Record, error) {
	l.Lock()
	defer l.Unlock()
	return l.get(id)
}

func (l *levelDB) FindByTransportAddress(address string) (*Record, error) {
	l.Lock()
	defer l.Unlock()

	list, err := l.list()
	if nil != err {
		return nil, err
	}
	for _, r := range list {
		if address == r.TransportAddress {
			return r, nil
		}
	}
	return nil, fault.ErrNotFound
}

func (l *levelDB) Update(id uint64, patch Patch) error {
	l.Lock()
	defer l.Unlock()

	r, err := l.get(id)
	if nil != err {
		return err
	}
	r.apply(patch)

	batch := new(leveldb.Batch)
	if err := l.put(batch, r); nil != err {
		return err
	}
	return l.db.Write(batch, nil)
}

func (l *levelDB) Remove(id uint64) error {
	l.Lock()
	defer l.Unlock()

	key := recordKey(id)
	found, err := l.db.Has(key, nil)
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrNotFound
	}
	l.log.Debugf("remove: %d", id)
	return l.db.Delete(key, nil)
}

func (l *levelDB) List() ([]*Record, error) {
	l.Lock()
	defer l.Unlock()
	return l.list()
}

// all records in id order
func (l *levelDB) list() ([]*Record, error) {
	maxRange := ldb_util.Range{
		Start: []byte{recordPrefix},     // Start of key range, included in the range
		Limit: []byte{recordPrefix + 1}, // Limit of key range, excluded from the range
	}

	iter := l.db.NewIterator(&maxRange, nil)
	defer iter.Release()

	list := make([]*Record, 0)
	for iter.Next() {
		var r Record
		if err := json.Unmarshal(iter.Value(), &r); nil != err {
			return nil, err
		}
		list = append(list, &r)
	}
	return list, iter.Error()
}

func (l *levelDB) Close() error {
	l.Lock()
	defer l.Unlock()
	return l.db.Close()
}
