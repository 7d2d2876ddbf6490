package secrets

import "errors"

var (
	// ErrInvalidTOML indicates an allowlist file that is not valid TOML.
	ErrInvalidTOML = errors.New("invalid allowlist TOML")

	// ErrInvalidRegex indicates an allowlist pattern that does not compile.
	ErrInvalidRegex = errors.New("invalid allowlist regex")
)
