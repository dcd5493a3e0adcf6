package archive

import "fmt"

// IOError reports a filesystem failure on a specific path. The underlying
// OS error is preserved and reachable via errors.Unwrap.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// InvalidArchiveError reports an archive that cannot be trusted: the
// manifest entry is missing, or its build marker does not match the
// running program.
type InvalidArchiveError struct {
	Reason string
}

func (e *InvalidArchiveError) Error() string { return "invalid archive: " + e.Reason }

// SerializationError reports a failure to encode or decode a peripheral
// record such as a backup template.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return fmt.Sprintf("serialization failed: %v", e.Err) }
func (e *SerializationError) Unwrap() error { return e.Err }
