// Package secrets detects hardcoded credentials in source evidence using
// the Gitleaks rule set, with an optional TOML allowlist for known fakes
// and test fixtures.
package secrets
