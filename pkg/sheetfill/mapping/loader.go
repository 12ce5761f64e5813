package mapping

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/lookup"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/transform"
)

// Options configures mapping loading.
type Options struct {
	// UnknownSteps selects how unregistered transform names are handled.
	UnknownSteps transform.UnknownStepPolicy
	// Read configures how dictionary workbooks are read.
	Read parser.ReadOptions
	// Logger receives dictionary and step warnings. Nil discards them.
	Logger logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LoadFile loads a mapping file. Relative dictionary paths resolve against
// the file's directory.
func LoadFile(fs afero.Fs, path string, opts Options) (*Spec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	return Parse(fs, data, filepath.Dir(path), opts)
}

// Parse decodes, validates and compiles mapping YAML. Dictionaries are
// loaded from fs relative to baseDir.
func Parse(fs afero.Fs, data []byte, baseDir string, opts Options) (*Spec, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	logger := opts.logger()
	lookups := lookup.Load(fs, doc.Dict, doc.DictSources, baseDir, opts.Read, logger)
	return Compile(doc, lookups, opts)
}

// Compile turns a validated document into a Spec. Transform chains are
// compiled here so unknown steps and bad parameters surface before any
// row is processed.
func Compile(doc *Document, lookups *lookup.Registry, opts Options) (*Spec, error) {
	spec := &Spec{
		JoinKey: doc.Join.Keys.First(),
		Lookups: lookups,
	}
	env := transform.Env{
		Lookups:      lookups,
		UnknownSteps: opts.UnknownSteps,
		Logger:       opts.logger(),
	}

	res := &ValidationError{}
	for i, sd := range doc.TargetSheets {
		sheet := TargetSheet{
			Name:   sd.Name,
			Policy: policyOf(sd.RowPolicy),
			Source: sd.Source,
		}
		for j, cd := range sd.Mappings {
			col := Column{
				Target:  cd.To.Column,
				Default: models.String(""),
			}
			if cd.Default.Set {
				col.Default = models.FromInterface(cd.Default.Value)
			}
			for _, ref := range cd.From {
				where := ref.Where
				if where == nil {
					where = cd.Where
				}
				col.Sources = append(col.Sources, SourceRef{
					Table:  ref.TableName(),
					Column: ref.Column,
					Where:  conditions(where),
				})
			}

			colEnv := env
			colEnv.Logger = env.Logger.WithFields(logrus.Fields{"sheet": sd.Name, "column": col.Target})
			chain, err := transform.Compile(cd.Transform, colEnv)
			if err != nil {
				res.add(fmt.Sprintf("target_sheets[%d].mappings[%d].transform", i, j), "%v", err)
				continue
			}
			col.Chain = chain
			sheet.Columns = append(sheet.Columns, col)
		}
		spec.Sheets = append(spec.Sheets, sheet)
	}

	if err := res.orNil(); err != nil {
		return nil, err
	}
	return spec, nil
}

// conditions converts a where map into conditions sorted by field.
func conditions(where map[string]any) []Condition {
	if len(where) == 0 {
		return nil
	}
	out := make([]Condition, 0, len(where))
	for field, v := range where {
		out = append(out, Condition{Field: field, Value: cast.ToString(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
