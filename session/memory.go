// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"sort"
	"sync"

	"github.com/bitmark-inc/spvrelay/fault"
)

type memory struct {
	sync.Mutex
	lastId  uint64
	records map[uint64]*Record
}

// NewMemory - a store that lives only as long as the process
func NewMemory() Store {
	return &memory{
		records: make(map[uint64]*Record),
	}
}

func (m *memory) Create(record *Record) (uint64, error) {
	if nil == record {
		return 0, fault.ErrMissingParameters
	}

	m.Lock()
	defer m.Unlock()

	m.lastId += 1
	r := record.clone()
	r.LocalId = m.lastId
	m.records[r.LocalId] = r
	return r.LocalId, nil
}

func (m *memory) FindByLocalId(id uint64) (*Record, error) {
	m.Lock()
	defer m.Unlock()

	r, ok := m.records[id]
	if !ok {
		return nil, fault.ErrNotFound
	}
	return r.clone(), nil
}

func (m *memory) FindByTransportAddress(address string) (*Record, error) {
	m.Lock()
	defer m.Unlock()

	var found *Record
	for _, r := range m.records {
		if address == r.TransportAddress && (nil == found || r.LocalId < found.LocalId) {
			found = r
		}
	}
	if nil == found {
		return nil, fault.ErrNotFound
	}
	return found.clone(), nil
}

func (m *memory) Update(id uint64, patch Patch) error {
	m.Lock()
	defer m.Unlock()

	r, ok := m.records[id]
	if !ok {
		return fault.ErrNotFound
	}
	r.apply(patch)
	return nil
}

func (m *memory) Remove(id uint64) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.records[id]; !ok {
		return fault.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memory) List() ([]*Record, error) {
	m.Lock()
	defer m.Unlock()

	list := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		list = append(list, r.clone())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LocalId < list[j].LocalId
	})
	return list, nil
}

func (m *memory) Close() error {
	return nil
}
