// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

// Store - session record persistence
type Store interface {
	Create(record *Record) (uint64, error)
	FindByLocalId(id uint64) (*Record, error)
	FindByTransportAddress(address string) (*Record, error)
	Update(id uint64, patch Patch) error
	Remove(id uint64) error
	List() ([]*Record, error)
	Close() error
}
