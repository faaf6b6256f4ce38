package services

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/tbourn/go-repair-scheduler/internal/domain"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeAppointments serializes the collection as a JSON array. A nil or
// empty collection encodes as "[]".
func EncodeAppointments(list []domain.Appointment) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	b, err := jsonAPI.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeAppointments parses a stored collection. Blank text and a JSON null
// decode to an empty collection. Anything else must be an array of objects,
// each with a non-empty, unique id; otherwise the error wraps
// ErrCorruptPayload.
func DecodeAppointments(s string) ([]domain.Appointment, error) {
	raw := bytes.TrimSpace([]byte(s))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Appointment{}, nil
	}
	if raw[0] != '[' {
		return nil, fmt.Errorf("%w: not a JSON array", ErrCorruptPayload)
	}

	var items []*domain.Appointment
	if err := jsonAPI.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}

	out := make([]domain.Appointment, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, a := range items {
		if a == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrCorruptPayload, i)
		}
		if a.ID == "" {
			return nil, fmt.Errorf("%w: element %d has no id", ErrCorruptPayload, i)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCorruptPayload, a.ID)
		}
		seen[a.ID] = struct{}{}
		out = append(out, *a)
	}
	return out, nil
}
