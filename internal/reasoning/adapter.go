package reasoning

import (
	"context"
	"fmt"
)

// Adapter produces structured outputs for a declared signature.
//
// Predict returns a map holding exactly the output fields the
// signature declares. Any error means the inference is unusable and
// the map must not be inspected.
type Adapter interface {
	Predict(ctx context.Context, sig Signature, inputs map[string]any) (map[string]any, error)
}

// disabledAdapter fails every call with a fixed reason.
type disabledAdapter struct {
	reason string
}

// Disabled returns an Adapter that fails every Predict with
// ErrDisabled and the given reason. It stands in for the model client
// when no API key is configured.
func Disabled(reason string) Adapter {
	return &disabledAdapter{reason: reason}
}

// Predict implements Adapter.
func (d *disabledAdapter) Predict(context.Context, Signature, map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("%w: %s", ErrDisabled, d.reason)
}

var _ Adapter = (*disabledAdapter)(nil)
