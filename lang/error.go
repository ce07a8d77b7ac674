package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Kind classifies an [Error] by the stage of processing that rejected the
// input.
type Kind int

const (
	KindNone Kind = iota
	// KindFormat is malformed declaration, expression or literal syntax.
	KindFormat
	// KindType is an unknown type tag or a value of the wrong type.
	KindType
	// KindReference is an unresolved variable, constant or attribute.
	KindReference
	// KindEvaluation is an arithmetic or comparison fault.
	KindEvaluation
	// KindNotFound is an operation on a variable that is not bound.
	KindNotFound
	// KindAlreadyExists is the creation of a variable that is already bound.
	KindAlreadyExists
	// KindIO is a failure reading or writing source files.
	KindIO
)

var kindName = [...]string{
	KindNone:          "Error",
	KindFormat:        "FormatError",
	KindType:          "TypeError",
	KindReference:     "ReferenceError",
	KindEvaluation:    "EvaluationError",
	KindNotFound:      "NotFoundError",
	KindAlreadyExists: "AlreadyExistsError",
	KindIO:            "IOError",
}

// String returns the conventional name of the error kind, e.g. "TypeError".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindName) {
		return kindName[KindNone]
	}

	return kindName[k]
}

// Root sentinels. errors.Is reports true for every error of the same kind.
var (
	ErrFormat        = newKind(KindFormat, "format error")
	ErrType          = newKind(KindType, "type error")
	ErrReference     = newKind(KindReference, "reference error")
	ErrEvaluation    = newKind(KindEvaluation, "evaluation error")
	ErrNotFound      = newKind(KindNotFound, "not found")
	ErrAlreadyExists = newKind(KindAlreadyExists, "already exists")
	ErrIO            = newKind(KindIO, "i/o error")
)

// Predefined errors (sentinel values).
var (
	ErrMalformedDeclaration = ErrFormat.sub("malformed declaration")
	ErrMalformedImport      = ErrFormat.sub("malformed import directive")
	ErrMalformedExpression  = ErrFormat.sub("malformed expression")
	ErrMalformedLiteral     = ErrFormat.sub("malformed literal")
	ErrUnquotedString       = ErrFormat.sub("string value must be quoted")
	ErrInvalidNumber        = ErrFormat.sub("invalid number")
	ErrInvalidName          = ErrFormat.sub("invalid name")
	ErrEmptyValue           = ErrFormat.sub("empty value")
	ErrEmptyElement         = ErrFormat.sub("empty element")
	ErrUnbalanced           = ErrFormat.sub("unbalanced delimiter")
	ErrUnterminatedBlock    = ErrFormat.sub("unterminated block")
	ErrUnterminatedComment  = ErrFormat.sub("unterminated comment")
	ErrUnterminatedQuote    = ErrFormat.sub("unterminated quote")
	ErrUnsupportedOperator  = ErrFormat.sub("unsupported operator")
	ErrImportCycle          = ErrFormat.sub("import cycle")
	ErrLineBreak            = ErrFormat.sub("line break outside a brace block")

	ErrUnknownType  = ErrType.sub("unknown type")
	ErrTypeMismatch = ErrType.sub("type mismatch")
	ErrRedeclared   = ErrType.sub("variable redeclared with a different type")
	ErrNotNumeric   = ErrType.sub("operand is not numeric")
	ErrUnhashable   = ErrType.sub("unhashable set element")

	ErrUndefined    = ErrReference.sub("undefined name")
	ErrNotDict      = ErrReference.sub("attribute of a non-dict value")
	ErrNoAttribute  = ErrReference.sub("attribute not found")
	ErrNoSuchObject = ErrReference.sub("object not defined")

	ErrDivisionByZero = ErrEvaluation.sub("division by zero")
	ErrOverflow       = ErrEvaluation.sub("integer overflow")
	ErrIncomparable   = ErrEvaluation.sub("values are not comparable")

	ErrVariableNotFound = ErrNotFound.sub("variable not found")
	ErrVariableExists   = ErrAlreadyExists.sub("variable already exists")

	ErrReadSource     = ErrIO.sub("failed to read source")
	ErrWriteSource    = ErrIO.sub("failed to write source")
	ErrImportNotFound = ErrIO.sub("imported file not found")
	ErrStaleSource    = ErrIO.sub("source changed on disk since it was parsed")
	ErrNoCurrentFile  = ErrIO.sub("no file has been parsed")
)

var kindRoot = map[Kind]*Error{
	KindFormat:        ErrFormat,
	KindType:          ErrType,
	KindReference:     ErrReference,
	KindEvaluation:    ErrEvaluation,
	KindNotFound:      ErrNotFound,
	KindAlreadyExists: ErrAlreadyExists,
	KindIO:            ErrIO,
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Every Error derived from a sentinel through [Error.Wrap] or [Error.With]
// remembers that sentinel, so errors.Is matches the sentinel itself and the
// root sentinel of its [Kind].
type Error struct {
	msg   string
	kind  Kind
	base  *Error      // Sentinel this error was derived from
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func newKind(kind Kind, msg string) *Error {
	return &Error{msg: msg, kind: kind}
}

// sub returns a new sentinel of the same kind as e.
func (e *Error) sub(msg string) *Error {
	return &Error{msg: msg, kind: e.kind}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from, or the root
// sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.sentinel() == e.sentinel() {
		return true
	}

	return e.kind != KindNone && kindRoot[e.kind] == t
}

func (e *Error) sentinel() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// Kind returns the classification of e.
func (e *Error) Kind() Kind { return e.kind }

// KindOf returns the [Kind] of the first [Error] in err's chain, or
// [KindNone] if there is none.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.kind
	}

	return KindNone
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.kind != KindNone {
		attrs = append(attrs, slog.String("kind", e.kind.String()))
	}

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		kind:  e.kind,
		base:  e.sentinel(),
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		kind:  e.kind,
		base:  e.sentinel(),
		err:   e.err,
		attrs: newAttrs,
	}
}

// Attrs returns a copy of the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr {
	return append([]slog.Attr(nil), e.attrs...)
}
