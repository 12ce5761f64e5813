package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslation "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidMapping indicates a mapping that cannot be used.
var ErrInvalidMapping = errors.New("invalid mapping")

// Problem is one structural issue found in a mapping.
type Problem struct {
	// Path locates the offending field, e.g. target_sheets[0].mappings[2].to.column.
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// ValidationError lists every problem found while validating a mapping.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidMapping, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidMapping
}

func (e *ValidationError) add(path, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	enLocale := en.New()
	enTranslator, found := ut.New(enLocale, enLocale).GetTranslator("en")
	if !found {
		panic(fmt.Errorf("en translator was not found"))
	}
	if err := enTranslation.RegisterDefaultTranslations(validate, enTranslator); err != nil {
		panic(fmt.Errorf("translator was not registered: %w", err))
	}

	// Report YAML key names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return validate, enTranslator
}

// Validate checks the structure of doc and returns a *ValidationError
// listing every problem, or nil.
func Validate(doc *Document) error {
	res := &ValidationError{}
	if doc == nil {
		res.add("", "mapping is empty")
		return res
	}

	validate, translator := newValidator()
	if err := validate.Struct(doc); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		for _, fe := range validationErrs {
			res.Problems = append(res.Problems, Problem{
				Path:    fieldPath(fe.Namespace()),
				Message: fe.Translate(translator),
			})
		}
	}

	return res.orNil()
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}

func policyOf(raw string) Policy {
	switch raw {
	case "", string(PolicyOneToOne):
		return PolicyOneToOne
	default:
		return PolicyAppend
	}
}
