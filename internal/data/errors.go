package data

import "errors"

// Loader failures. Every load error wraps exactly one of these; none is
// retryable, the caller has to supply a corrected package.
var (
	// ErrPackageTooLarge: the archive (or one of its entries) exceeds the size cap.
	ErrPackageTooLarge = errors.New("package too large")
	// ErrPackageStructureInvalid: a required file or section is missing or ambiguous.
	ErrPackageStructureInvalid = errors.New("invalid package")
	// ErrPackageContentInvalid: malformed JSON/YAML or an enum value out of range.
	ErrPackageContentInvalid = errors.New("invalid package content")
	// ErrInvariantViolation: the content decodes but breaks a package invariant.
	ErrInvariantViolation = errors.New("package invariant violated")
)
