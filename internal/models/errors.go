package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSection     = errors.New("unknown section")
	ErrCorruptPreferences = errors.New("corrupt preferences")
	ErrInvalidSchedule    = errors.New("invalid schedule")
)

type UnknownSectionError struct {
	Name string
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown section %q", e.Name)
}

func (e *UnknownSectionError) Unwrap() error {
	return ErrUnknownSection
}
