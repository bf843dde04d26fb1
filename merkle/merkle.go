// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"encoding/json"

	"github.com/bitmark-inc/spvrelay/fault"
)

// Side - position of the sibling hash relative to the current node
type Side int

// sibling positions
const (
	Right Side = iota // sibling is the right child: hash(current || sibling)
	Left              // sibling is the left child:  hash(sibling || current)
)

// String - wire representation of a side
func (s Side) String() string {
	if Left == s {
		return "L"
	}
	return "R"
}

// ParseSide - convert "L" or "R"
func ParseSide(s string) (Side, error) {
	switch s {
	case "L", "l":
		return Left, nil
	case "R", "r":
		return Right, nil
	default:
		return Right, fault.ErrInvalidPathStep
	}
}

// Step - one level of a merkle branch
type Step struct {
	Side Side
	Hash Digest
}

// Path - steps from leaf to root, order is significant
type Path []Step

type stepJSON struct {
	Pos  string `json:"pos"`
	Hash Digest `json:"hash"`
}

// MarshalJSON - step as {"pos": "L"|"R", "hash": big endian hex}
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(stepJSON{
		Pos:  s.Side.String(),
		Hash: s.Hash,
	})
}

// UnmarshalJSON - inverse of MarshalJSON
func (s *Step) UnmarshalJSON(b []byte) error {
	var j stepJSON
	if err := json.Unmarshal(b, &j); nil != err {
		return err
	}
	side, err := ParseSide(j.Pos)
	if nil != err {
		return err
	}
	s.Side = side
	s.Hash = j.Hash
	return nil
}

// ComputeRoot - fold the path over the transaction id
//
// the path is applied strictly leaf to root in the given order
func ComputeRoot(txId Digest, path Path) Digest {
	current := txId
	buffer := make([]byte, 2*DigestLength)
	for _, step := range path {
		if Left == step.Side {
			copy(buffer[:DigestLength], step.Hash[:])
			copy(buffer[DigestLength:], current[:])
		} else {
			copy(buffer[:DigestLength], current[:])
			copy(buffer[DigestLength:], step.Hash[:])
		}
		current = NewDigest(buffer)
	}
	return current
}

// Verify - check that a path leads from a transaction id to an expected root
func Verify(txId Digest, path Path, expectedRoot Digest) bool {
	return ComputeRoot(txId, path) == expectedRoot
}

// FullMerkleTree - compute a merkle tree from a set of transaction ids
//
// structure is:
//   1. N * transaction digests
//   2. level 1..m digests
//   3. merkle root digest
// an odd node at any level is paired with itself
func FullMerkleTree(txIds []Digest) []Digest {

	idCount := len(txIds)
	if 0 == idCount {
		return nil
	}

	totalLength := 1 // all ids + space for the final root
	for n := idCount; n > 1; n = (n + 1) / 2 {
		totalLength += n
	}

	tree := make([]Digest, totalLength)
	copy(tree[:], txIds)

	n := idCount
	j := 0
	for workLength := idCount; workLength > 1; workLength = (workLength + 1) / 2 {
		for i := 0; i < workLength; i += 2 {
			k := j + 1
			if i+1 == workLength {
				k = j // compensate for odd number
			}
			tree[n] = NewDigest(append(tree[j][:], tree[k][:]...))
			n += 1
			j = k + 1
		}
	}
	return tree
}

// PathFor - extract the branch for the id at index from a full tree
// of idCount leaves, returns nil if index is out of range
func PathFor(tree []Digest, idCount int, index int) Path {
	if index < 0 || index >= idCount {
		return nil
	}

	path := Path{}
	levelStart := 0
	for width := idCount; width > 1; width = (width + 1) / 2 {
		sibling := index ^ 1
		if sibling >= width {
			sibling = index // odd node paired with itself
		}
		side := Right
		if 1 == index&1 {
			side = Left
		}
		path = append(path, Step{
			Side: side,
			Hash: tree[levelStart+sibling],
		})
		levelStart += width
		index /= 2
	}
	return path
}
