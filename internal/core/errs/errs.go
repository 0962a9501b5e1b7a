// Package errs declares the error kinds pika reports, each with a stable code.
package errs

import (
	"strconv"

	"github.com/serum-errors/go-serum"
)

const (
	CodeManifestRead     = "pika-error-manifest-read"
	CodeManifestWrite    = "pika-error-manifest-write"
	CodeDelegationFailed = "pika-error-delegation-failed"
	CodeConfig           = "pika-error-config"
	CodeUsage            = "pika-error-usage"
)

// ErrorManifestRead is returned when package.json is missing, unparsable,
// or has the wrong shape.
//
// Errors:
//
//   - pika-error-manifest-read --
func ErrorManifestRead(path string, cause error) error {
	return serum.Error(CodeManifestRead,
		serum.WithMessageTemplate("unable to read manifest {{path|q}}: {{reason}}"),
		serum.WithDetail("path", path),
		serum.WithDetail("reason", cause.Error()),
		serum.WithCause(cause),
	)
}

// ErrorManifestWrite is returned when package.json cannot be written back.
//
// Errors:
//
//   - pika-error-manifest-write --
func ErrorManifestWrite(path string, cause error) error {
	return serum.Error(CodeManifestWrite,
		serum.WithMessageTemplate("unable to write manifest {{path|q}}: {{reason}}"),
		serum.WithDetail("path", path),
		serum.WithDetail("reason", cause.Error()),
		serum.WithCause(cause),
	)
}

// ErrorDelegationFailed is returned when a delegated tool could not be
// started or exited non-zero. exitCode is -1 when the process never ran.
//
// Errors:
//
//   - pika-error-delegation-failed --
func ErrorDelegationFailed(command string, exitCode int, cause error) error {
	return serum.Error(CodeDelegationFailed,
		serum.WithMessageTemplate("command {{command|q}} failed: {{reason}}"),
		serum.WithDetail("command", command),
		serum.WithDetail("exitCode", strconv.Itoa(exitCode)),
		serum.WithDetail("reason", cause.Error()),
		serum.WithCause(cause),
	)
}

// ErrorConfig is returned when the user configuration file is unreadable.
//
// Errors:
//
//   - pika-error-config --
func ErrorConfig(path string, cause error) error {
	return serum.Error(CodeConfig,
		serum.WithMessageTemplate("invalid configuration {{path|q}}: {{reason}}"),
		serum.WithDetail("path", path),
		serum.WithDetail("reason", cause.Error()),
		serum.WithCause(cause),
	)
}

// ErrorUsage is returned when a recognized global flag is malformed.
//
// Errors:
//
//   - pika-error-usage --
func ErrorUsage(reason string) error {
	return serum.Error(CodeUsage,
		serum.WithMessageTemplate("invalid usage: {{reason}}"),
		serum.WithDetail("reason", reason),
	)
}

// ExitCode picks the process exit status for err. Delegation failures carry
// the child's status; anything else maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if serum.Code(err) == CodeDelegationFailed {
		for _, d := range serum.Details(err) {
			if d[0] != "exitCode" {
				continue
			}
			if code, convErr := strconv.Atoi(d[1]); convErr == nil && code > 0 {
				return code
			}
		}
	}
	return 1
}
