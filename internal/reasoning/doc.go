// Package reasoning provides structured model inference for agents.
//
// An Adapter turns a declared Signature plus input values into a map
// of output values. The production Client prompts an OpenAI-compatible
// chat model for a JSON object and validates that every declared
// output field is present. When no API key is configured, Disabled
// stands in and fails every call with ErrDisabled so callers degrade
// instead of crashing.
package reasoning
