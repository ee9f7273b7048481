// Package parser turns raw coverage JSON into typed coverage records.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/IgorBayerl/sfcov/internal/model"
)

var (
	// ErrUnrecognizedInputShape is returned when a payload matches neither the
	// per-test-run nor the per-deploy-instrumentation layout.
	ErrUnrecognizedInputShape = errors.New("coverage JSON does not match a known format")
	// ErrMalformedRecord marks a single entry whose values do not fit its typed
	// record, e.g. a fractional hit count. Only that entry is rejected.
	ErrMalformedRecord = errors.New("malformed coverage record")
)

// Decode classifies raw coverage JSON and decodes it into the matching typed
// records.
func Decode(raw []byte) (*model.Payload, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedInputShape, err)
	}
	return DecodeValue(generic)
}

// DecodeValue decodes an already-parsed JSON value. Entries are decoded one
// at a time; an entry that fails lands in Payload.Rejected instead of failing
// the whole payload.
func DecodeValue(data any) (*model.Payload, error) {
	shape := Classify(data)
	payload := &model.Payload{Shape: shape}
	switch shape {
	case model.ShapePerTestRun:
		for _, el := range data.([]any) {
			var rec model.TestRunRecord
			if err := decodeEntry(el, &rec); err != nil {
				name, _ := el.(map[string]any)["name"].(string)
				payload.Rejected = append(payload.Rejected, model.RejectedRecord{Name: name, Err: err})
				continue
			}
			payload.TestRuns = append(payload.TestRuns, rec)
		}
	case model.ShapePerDeploy:
		obj := data.(map[string]any)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		payload.Deploy = make(map[string]model.DeployRecord, len(obj))
		for _, k := range keys {
			var rec model.DeployRecord
			if err := decodeEntry(obj[k], &rec); err != nil {
				payload.Rejected = append(payload.Rejected, model.RejectedRecord{Name: k, Err: err})
				continue
			}
			payload.Deploy[k] = rec
		}
	default:
		return nil, ErrUnrecognizedInputShape
	}
	return payload, nil
}

// decodeEntry round-trips one generic entry through encoding/json so the
// typed struct gets the same field handling as a direct unmarshal.
func decodeEntry(v any, dst any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := json.Unmarshal(buf, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}
