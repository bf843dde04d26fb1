// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type UnavailableError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised     = ExistsError("already initialised")
	ErrConnectivityExhausted  = ProcessError("reconnect limit reached")
	ErrDecryptionFailure      = InvalidError("decryption failure")
	ErrIdMismatch             = InvalidError("transaction id mismatch")
	ErrInvalidBlockHeight     = InvalidError("invalid block height")
	ErrInvalidConfiguration   = InvalidError("invalid configuration")
	ErrInvalidDigest          = InvalidError("invalid digest")
	ErrInvalidEnvelope        = InvalidError("invalid envelope")
	ErrInvalidHeader          = InvalidError("invalid block header")
	ErrInvalidInvitation      = InvalidError("invalid invitation")
	ErrInvalidKey             = InvalidError("invalid key")
	ErrInvalidLoggerChannel   = ProcessError("invalid logger channel")
	ErrInvalidPathStep        = InvalidError("invalid merkle path step")
	ErrInvalidPrivateKeyFile  = InvalidError("invalid private key file")
	ErrInvalidPublicKeyFile   = InvalidError("invalid public key file")
	ErrInvalidStructPointer   = InvalidError("invalid struct pointer")
	ErrKeyFileAlreadyExists   = ExistsError("key file already exists")
	ErrLinkageMissing         = InvalidError("funding input missing")
	ErrMalformedTransaction   = InvalidError("malformed transaction")
	ErrMerkleRootMismatch     = InvalidError("merkle root mismatch")
	ErrMissingParameters      = InvalidError("missing parameters")
	ErrMissingProof           = InvalidError("missing merkle path or block height")
	ErrNotConnected           = ProcessError("not connected")
	ErrNotFound               = NotFoundError("record not found")
	ErrNotPaired              = InvalidError("peer public key or label not known")
	ErrProofSourceUnavailable = UnavailableError("proof source unavailable")
	ErrRateLimiting           = ProcessError("rate limiting")
	ErrRouteNotFound          = NotFoundError("route not found")
	ErrScriptInvalid          = InvalidError("script verification failed")
	ErrSendQueueFull          = ProcessError("send queue full")
	ErrSessionConcluded       = InvalidError("session already concluded")
	ErrSessionNotFound        = NotFoundError("session not found")
	ErrTooManyConnections     = ProcessError("too many connections")
	ErrUnknownEvent           = InvalidError("unknown event")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string      { return string(e) }
func (e InvalidError) Error() string     { return string(e) }
func (e NotFoundError) Error() string    { return string(e) }
func (e ProcessError) Error() string     { return string(e) }
func (e UnavailableError) Error() string { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool      { var x ExistsError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool     { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool    { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool     { var x ProcessError; return errors.As(e, &x) }
func IsErrUnavailable(e error) bool { var x UnavailableError; return errors.As(e, &x) }
