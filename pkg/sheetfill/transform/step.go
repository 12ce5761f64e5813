// Package transform implements the named value transforms applied to
// candidate values before they are written to a cell.
package transform

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/lookup"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// UnknownStepPolicy selects how Compile treats step names that are not
// registered.
type UnknownStepPolicy string

const (
	// UnknownStepsReject fails compilation on an unknown step name.
	UnknownStepsReject UnknownStepPolicy = "reject"
	// UnknownStepsSkip drops unknown steps from the chain with a warning.
	UnknownStepsSkip UnknownStepPolicy = "skip"
)

// ErrUnknownStep indicates a step name that is not registered.
var ErrUnknownStep = errors.New("unknown transform step")

// ErrInvalidParams indicates step parameters that cannot be decoded.
var ErrInvalidParams = errors.New("invalid step parameters")

// StepError locates a compilation failure within a chain.
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("transform step %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Func is a step with its parameters bound. It maps the current value
// sequence to the next one and never fails; bad values degrade to a
// fallback.
type Func func(values []models.Value) []models.Value

// Env carries what step builders may need at compile time.
type Env struct {
	// Lookups resolves dictionary names for dict and to_value_label.
	Lookups *lookup.Registry
	// UnknownSteps defaults to UnknownStepsReject.
	UnknownSteps UnknownStepPolicy
	// Logger receives compile-time warnings. Nil discards them.
	Logger logrus.FieldLogger
}

func (e Env) logger() logrus.FieldLogger {
	if e.Logger != nil {
		return e.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type builder func(params any, env Env) (Func, error)

var builders = map[string]builder{
	"trim":              buildTrim,
	"json_parse":        buildJSONParse,
	"json_stringify":    buildJSONStringify,
	"form_pick":         buildFormPick,
	"form_picker_names": buildFormPickerNames,
	"format_each":       buildFormatEach,
	"join_agg":          buildJoinAgg,
	"number_parse":      buildNumberParse,
	"round":             buildRound,
	"date_parse":        buildDateParse,
	"date_format":       buildDateFormat,
	"dict":              buildDict,
	"to_value_label":    buildValueLabel,
}

// Registered returns the registered step names, sorted.
func Registered() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name is a known step.
func IsRegistered(name string) bool {
	_, ok := builders[name]
	return ok
}

// Step is a compiled chain element.
type Step struct {
	Name  string
	apply Func
}

// Chain is an ordered list of compiled steps.
type Chain []Step

// Apply runs values through every step in order. The input slice is not
// modified.
func (c Chain) Apply(values []models.Value) []models.Value {
	out := values
	for _, s := range c {
		out = s.apply(out)
	}
	return out
}

// Names returns the step names of the chain.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name
	}
	return names
}

// Compile resolves every step name and binds its parameters. Parameter
// errors are always fatal; unknown names follow env.UnknownSteps.
func Compile(specs []models.StepSpec, env Env) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for i, spec := range specs {
		build, ok := builders[spec.Name]
		if !ok {
			if env.UnknownSteps == UnknownStepsSkip {
				env.logger().WithField("step", spec.Name).Warn("unknown transform step skipped")
				continue
			}
			return nil, &StepError{Index: i, Name: spec.Name, Err: ErrUnknownStep}
		}
		fn, err := build(spec.Params, env)
		if err != nil {
			return nil, &StepError{Index: i, Name: spec.Name, Err: fmt.Errorf("%w: %v", ErrInvalidParams, err)}
		}
		chain = append(chain, Step{Name: spec.Name, apply: fn})
	}
	return chain, nil
}

// mapEach applies fn to every value.
func mapEach(values []models.Value, fn func(models.Value) models.Value) []models.Value {
	out := make([]models.Value, len(values))
	for i, v := range values {
		out[i] = fn(v)
	}
	return out
}
