// Package repository содержит хранилища состояния вале: JSON-файлы и PostgreSQL.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStateNotFound возвращается, если для PIN ещё не сохранено ни одного состояния.
var ErrStateNotFound = errors.New("state not found")

// LoadErrorKind различает причины неудачной загрузки состояния.
type LoadErrorKind string

const (
	// LoadErrorIO: состояние не удалось прочитать.
	LoadErrorIO LoadErrorKind = "io"
	// LoadErrorParse: состояние прочитано, но не разобрано.
	LoadErrorParse LoadErrorKind = "parse"
)

// LoadError описывает ошибку загрузки состояния для одного PIN.
type LoadError struct {
	Kind     LoadErrorKind
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load state %s (%s): %v", e.Location, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var pinReplacer = strings.NewReplacer(" ", "_", "/", "_")

// SafePIN приводит PIN к безопасному фрагменту имени: пробелы и «/» заменяются на «_».
func SafePIN(pin string) string {
	return pinReplacer.Replace(pin)
}
