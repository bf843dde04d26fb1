// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spv

import (
	"encoding/json"

	"github.com/bitmark-inc/spvrelay/merkle"
)

// Verdict - outcome of a verification, ordered by severity
type Verdict int

// possible verdicts
const (
	Accepted      Verdict = iota // all checks passed
	Indeterminate                // trusted root could not be obtained
	Rejected                     // a check failed
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Indeterminate:
		return "indeterminate"
	case Rejected:
		return "rejected"
	default:
		return "*unknown*"
	}
}

// MarshalText - verdict as its name
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Stage - step at which a verdict was reached
type Stage int

// verification stages in order
const (
	StageDecode Stage = iota
	StageIdIntegrity
	StageLinkage
	StageScript
	StageConfirmation
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageDecode:
		return "decode"
	case StageIdIntegrity:
		return "id-integrity"
	case StageLinkage:
		return "linkage"
	case StageScript:
		return "script"
	case StageConfirmation:
		return "confirmation"
	case StageDone:
		return "done"
	default:
		return "*unknown*"
	}
}

// MarshalText - stage as its name
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InputResult - confirmation outcome for one funding transaction
type InputResult struct {
	Index   int           `json:"index"`
	TxId    merkle.Digest `json:"txId"`
	Verdict Verdict       `json:"verdict"`
	Err     error         `json:"-"`
}

// Result - overall outcome
type Result struct {
	Verdict Verdict       `json:"verdict"`
	Stage   Stage         `json:"stage"`
	Err     error         `json:"-"`
	Inputs  []InputResult `json:"inputs,omitempty"`
}

// Ok - single boolean answer
func (r *Result) Ok() bool {
	return nil != r && Accepted == r.Verdict
}

// Reason - printable explanation
func (r *Result) Reason() string {
	if nil == r {
		return "no result"
	}
	if nil == r.Err {
		return r.Verdict.String()
	}
	return r.Err.Error()
}

// MarshalJSON - include the reason text
func (r *Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		*plain
		Reason string `json:"reason"`
	}{
		plain:  (*plain)(r),
		Reason: r.Reason(),
	})
}

// Reject - a rejected result for a stage
func Reject(stage Stage, err error) *Result {
	return &Result{
		Verdict: Rejected,
		Stage:   stage,
		Err:     err,
	}
}
