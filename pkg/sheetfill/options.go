// Package sheetfill fills the sheets of a spreadsheet template from a
// source workbook, driven by a declarative mapping document.
package sheetfill

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/resolve"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/transform"
)

// Options configures a fill run.
type Options struct {
	// Fs is the filesystem all paths are read from and written to.
	// If nil, the OS filesystem is used.
	Fs afero.Fs
	// Logger receives structural warnings and progress. If nil, logs are discarded.
	Logger logrus.FieldLogger
	// UnknownSteps selects how unregistered transform steps are handled.
	// If empty, they are rejected.
	UnknownSteps transform.UnknownStepPolicy
	// LenientSteps overrides UnknownSteps when set.
	LenientSteps *bool
	// RawCellValues reads source cells without applying number formats.
	RawCellValues bool
	// ProgressInterval is the number of base rows between progress logs.
	// If zero, resolve.DefaultProgressInterval is used.
	ProgressInterval int
}

// DefaultOptions returns default fill options.
func DefaultOptions() Options {
	return Options{
		Fs:               afero.NewOsFs(),
		UnknownSteps:     transform.UnknownStepsReject,
		ProgressInterval: resolve.DefaultProgressInterval,
	}
}

// ShouldSkipUnknownSteps returns whether unknown transform steps pass
// values through instead of failing the mapping load.
func (o Options) ShouldSkipUnknownSteps() bool {
	if o.LenientSteps != nil {
		return *o.LenientSteps
	}
	return o.UnknownSteps == transform.UnknownStepsSkip
}

func (o Options) stepPolicy() transform.UnknownStepPolicy {
	if o.ShouldSkipUnknownSteps() {
		return transform.UnknownStepsSkip
	}
	return transform.UnknownStepsReject
}

func (o Options) fs() afero.Fs {
	if o.Fs != nil {
		return o.Fs
	}
	return afero.NewOsFs()
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
