package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope types sent to viewers.
const (
	MsgWelcome = "welcome"
	MsgMoved   = "moved"
)

// Envelope is the wire frame: a type tag and its raw JSON payload.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

// Welcome is sent once when a viewer connects.
type Welcome struct {
	Message string   `json:"message"`
	Bodies  []string `json:"bodies"`
	Dt      float64  `json:"dt"`
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("transport: empty envelope type")
	}
	if payload == nil {
		return nil, fmt.Errorf("transport: nil payload for %q", t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{T: t, P: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errors.New("transport: empty frame")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// DecodePayload unmarshals env's payload into a T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("transport: empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
