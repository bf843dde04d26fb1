// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bitmark-inc/spvrelay/fault"
)

// Event - kind of envelope
type Event string

// known events
const (
	EventPresentApplicationId       Event = "PresentApplicationId"
	EventPresentRemoveApplicationId Event = "PresentRemoveApplicationId"
	EventPresentData                Event = "PresentData"
	EventPresentSpvData             Event = "PresentSpvData"
	EventUnknown                    Event = ""
)

// NoSession - id used on envelopes not tied to a session
const NoSession = -1

// Envelope - one frame on the wire
type Envelope struct {
	Id      int64    `json:"id"`
	Event   Event    `json:"event"`
	CallId  string   `json:"callId"`
	Message []string `json:"message"`

	// event name as received, kept for unknown events
	Name string `json:"-"`
}

type envelopeJSON struct {
	Id      *json.Number    `json:"id"`
	Event   *string         `json:"event"`
	CallId  *string         `json:"callId"`
	Message json.RawMessage `json:"message"`
}

// Decode - validate and decode one frame
func Decode(raw []byte) (*Envelope, error) {
	var j envelopeJSON
	if err := json.Unmarshal(raw, &j); nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidEnvelope, err)
	}

	if nil == j.Id || nil == j.Event {
		return nil, fmt.Errorf("%w: missing id or event", fault.ErrInvalidEnvelope)
	}

	id, err := j.Id.Int64()
	if nil != err {
		return nil, fmt.Errorf("%w: id: %s", fault.ErrInvalidEnvelope, err)
	}

	var message []string
	if err := json.Unmarshal(j.Message, &message); nil != err || nil == message {
		return nil, fmt.Errorf("%w: message must be an array of strings", fault.ErrInvalidEnvelope)
	}

	e := &Envelope{
		Id:      id,
		Event:   ParseEvent(*j.Event),
		Message: message,
		Name:    *j.Event,
	}
	if nil != j.CallId {
		e.CallId = *j.CallId
	}
	return e, nil
}

// ParseEvent - known event or EventUnknown
func ParseEvent(s string) Event {
	switch e := Event(s); e {
	case EventPresentApplicationId, EventPresentRemoveApplicationId, EventPresentData, EventPresentSpvData:
		return e
	default:
		return EventUnknown
	}
}

// Encode - JSON frame
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Accept - nil if the envelope carries one of the given events
func (e *Envelope) Accept(events ...Event) error {
	for _, event := range events {
		if EventUnknown != event && event == e.Event {
			return nil
		}
	}

	name := e.Name
	if "" == name {
		name = string(e.Event)
	}
	return fmt.Errorf("%w: %q", fault.ErrUnknownEvent, name)
}

// Token - registration token carried in the message
func (e *Envelope) Token() string {
	return strings.Join(e.Message, "")
}

// NewRegister - announce a token to the relay
func NewRegister(token string) *Envelope {
	return &Envelope{
		Id:      NoSession,
		Event:   EventPresentApplicationId,
		CallId:  "",
		Message: []string{token},
	}
}

// NewDeregister - withdraw a token from the relay
func NewDeregister(token string) *Envelope {
	return &Envelope{
		Id:      NoSession,
		Event:   EventPresentRemoveApplicationId,
		CallId:  "",
		Message: []string{token},
	}
}

// NewData - encrypted chunks for a peer
func NewData(event Event, id int64, callId string, chunks []string) *Envelope {
	return &Envelope{
		Id:      id,
		Event:   event,
		CallId:  callId,
		Message: chunks,
	}
}
