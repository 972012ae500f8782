// internal/keyer/sink.go
package keyer

import (
	"fmt"
	"io"
	"reflect"
)

// Appender is a target whose text can be extended. Decoded characters and
// word spaces are delivered through AppendText.
type Appender interface {
	AppendText(text string) error
}

type stringWriterTarget struct {
	w io.StringWriter
}

func (t stringWriterTarget) AppendText(text string) error {
	_, err := t.w.WriteString(text)
	return err
}

type writerTarget struct {
	w io.Writer
}

func (t writerTarget) AppendText(text string) error {
	_, err := io.WriteString(t.w, text)
	return err
}

// resolveAppender picks the append strategy for a target once, at
// registration. Appenders are used as-is; string writers and plain writers
// are adapted.
func resolveAppender(target any) (Appender, error) {
	if isNil(target) {
		return nil, ErrMissingTarget
	}
	switch t := target.(type) {
	case Appender:
		return t, nil
	case io.StringWriter:
		return stringWriterTarget{w: t}, nil
	case io.Writer:
		return writerTarget{w: t}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedTargetKind, target)
	}
}

// Append appends text to target, failing with ErrUnsupportedTargetKind when
// the target cannot hold appended text.
func Append(target any, text string) error {
	a, err := resolveAppender(target)
	if err != nil {
		return err
	}
	return a.AppendText(text)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
