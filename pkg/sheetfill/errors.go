package sheetfill

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/mapping"
)

// ErrFileNotFound indicates an input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates an input workbook is not a valid xlsx file.
var ErrInvalidFormat = errors.New("invalid xlsx format")

// ErrInvalidMapping indicates a structurally invalid mapping document.
var ErrInvalidMapping = mapping.ErrInvalidMapping

// Components reported by FillError.
const (
	ComponentSource   = "source"
	ComponentTemplate = "template"
	ComponentMapping  = "mapping"
	ComponentWrite    = "write"
	ComponentSave     = "save"
)

// FillError represents a fatal error during a fill run.
type FillError struct {
	SheetName string // empty for workbook-level failures
	Component string // "source", "template", "mapping", "write", "save"
	Err       error
}

func (e *FillError) Error() string {
	if e.SheetName == "" {
		return fmt.Sprintf("fill error (%s): %v", e.Component, e.Err)
	}
	return fmt.Sprintf("fill error in sheet %q (%s): %v", e.SheetName, e.Component, e.Err)
}

func (e *FillError) Unwrap() error {
	return e.Err
}

// NewFillError creates a new FillError.
func NewFillError(sheetName, component string, err error) *FillError {
	return &FillError{
		SheetName: sheetName,
		Component: component,
		Err:       err,
	}
}
