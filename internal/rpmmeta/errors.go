package rpmmeta

import "fmt"

// ErrorType categorizes the failure modes a repository metadata operation
// can produce. The split mirrors the structural/value/wrapped/io taxonomy
// of the wire-format contract: callers that need to react differently to
// e.g. a torn file versus a malformed attribute switch on this.
type ErrorType int

const (
	// Structural errors: the document shape itself is wrong.
	ErrMissingHeader ErrorType = iota
	ErrMissingAttribute
	ErrMissingField
	ErrUnknownAttribute
	ErrInconsistentMetadata

	// Value errors: the document shape is fine, a value in it isn't.
	ErrInvalidChecksum
	ErrUnsupportedChecksumAlgo
	ErrInvalidFlags
	ErrInvalidEvr

	// Wrapped errors: failures surfaced from a lower layer.
	ErrXMLParse
	ErrUTF8
	ErrIntParse
	ErrUnsupportedCompression
	ErrIO

	// Optional: only produced by the RPM-header external collaborator.
	ErrRpmRead
)

func (t ErrorType) String() string {
	switch t {
	case ErrMissingHeader:
		return "MissingHeader"
	case ErrMissingAttribute:
		return "MissingAttribute"
	case ErrMissingField:
		return "MissingField"
	case ErrUnknownAttribute:
		return "UnknownAttribute"
	case ErrInconsistentMetadata:
		return "InconsistentMetadata"
	case ErrInvalidChecksum:
		return "InvalidChecksum"
	case ErrUnsupportedChecksumAlgo:
		return "UnsupportedChecksumAlgo"
	case ErrInvalidFlags:
		return "InvalidFlags"
	case ErrInvalidEvr:
		return "InvalidEvr"
	case ErrXMLParse:
		return "XmlParse"
	case ErrUTF8:
		return "Utf8"
	case ErrIntParse:
		return "IntParse"
	case ErrUnsupportedCompression:
		return "UnsupportedCompression"
	case ErrIO:
		return "Io"
	case ErrRpmRead:
		return "RpmRead"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every operation in this package.
// Field is populated for the structural/value categories that name a
// specific attribute, field, or algorithm; it is empty otherwise.
type Error struct {
	Type  ErrorType
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		if e.Err != nil {
			return fmt.Sprintf("[%s] %s: %v", e.Type, e.Field, e.Err)
		}
		return fmt.Sprintf("[%s] %s", e.Type, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %v", e.Type, e.Err)
	}
	return fmt.Sprintf("[%s]", e.Type)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errMissingHeader(root string) error {
	return &Error{Type: ErrMissingHeader, Field: root}
}

func errMissingAttribute(name string) error {
	return &Error{Type: ErrMissingAttribute, Field: name}
}

func errMissingField(name string) error {
	return &Error{Type: ErrMissingField, Field: name}
}

func errUnknownAttribute(name string) error {
	return &Error{Type: ErrUnknownAttribute, Field: name}
}

func errInconsistentMetadata(msg string) error {
	return &Error{Type: ErrInconsistentMetadata, Field: msg}
}

func errInvalidChecksum(value string, algo ChecksumType) error {
	return &Error{Type: ErrInvalidChecksum, Field: fmt.Sprintf("%s (%s)", value, algo)}
}

func errUnsupportedChecksumAlgo(name string) error {
	return &Error{Type: ErrUnsupportedChecksumAlgo, Field: name}
}

func errInvalidFlags(value string) error {
	return &Error{Type: ErrInvalidFlags, Field: value}
}

func errInvalidEvr(value, reason string) error {
	return &Error{Type: ErrInvalidEvr, Field: fmt.Sprintf("%s: %s", value, reason)}
}

func wrapXMLParse(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: ErrXMLParse, Err: err}
}

func wrapUTF8(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: ErrUTF8, Err: err}
}

func wrapIntParse(field string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: ErrIntParse, Field: field, Err: err}
}

func wrapUnsupportedCompression(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: ErrUnsupportedCompression, Err: err}
}

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: ErrIO, Err: err}
}

// WrapRpmRead reports a failure reading an RPM file's header, for the
// internal/rpmheader collaborator (the only caller outside this package,
// hence exported rather than wrapXxx-private).
func WrapRpmRead(path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: ErrRpmRead, Field: path, Err: err}
}
