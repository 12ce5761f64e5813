package mapping

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/lookup"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// Document is the mapping file as written by users.
type Document struct {
	Join         JoinDoc                `yaml:"join"`
	Dict         map[string]map[any]any `yaml:"dict"`
	DictSources  []lookup.Source        `yaml:"dict_sources" validate:"dive"`
	TargetSheets []SheetDoc             `yaml:"target_sheets" validate:"required,min=1,dive"`
}

// JoinDoc declares the join key. Only the first key is used.
type JoinDoc struct {
	Keys OrderedKeys `yaml:"keys" validate:"required,min=1,dive,required"`
}

// SheetDoc describes one target sheet.
type SheetDoc struct {
	Name      string      `yaml:"name" validate:"required"`
	RowPolicy string      `yaml:"row_policy" validate:"omitempty,oneof=one_to_one one_to_many_append one_to_many"`
	Source    string      `yaml:"source"`
	Mappings  []ColumnDoc `yaml:"mappings" validate:"dive"`
}

// ColumnDoc maps source references to one target column.
type ColumnDoc struct {
	To        TargetDoc      `yaml:"to"`
	From      []SourceDoc    `yaml:"from" validate:"dive"`
	Where     map[string]any `yaml:"where"`
	Transform StepList       `yaml:"transform"`
	Default   OptionalValue  `yaml:"default"`
}

// TargetDoc names the output column by its header text.
type TargetDoc struct {
	Column string `yaml:"column" validate:"required"`
}

// SourceDoc references a column of a source table. Sheet and Table are
// synonyms.
type SourceDoc struct {
	Sheet  string         `yaml:"sheet" validate:"required_without=Table"`
	Table  string         `yaml:"table"`
	Column string         `yaml:"column" validate:"required"`
	Where  map[string]any `yaml:"where"`
}

// TableName returns the referenced table.
func (s SourceDoc) TableName() string {
	if s.Sheet != "" {
		return s.Sheet
	}
	return s.Table
}

// OrderedKeys keeps the declaration order of a YAML mapping's keys. A
// sequence or a single scalar is also accepted.
type OrderedKeys []string

// UnmarshalYAML implements custom YAML unmarshaling for OrderedKeys.
func (k *OrderedKeys) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		keys := make(OrderedKeys, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			keys = append(keys, node.Content[i].Value)
		}
		*k = keys
		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}
		*k = arr
		return nil

	case yaml.ScalarNode:
		*k = OrderedKeys{node.Value}
		return nil

	default:
		return fmt.Errorf("line %d: expected mapping, sequence or string for join keys", node.Line)
	}
}

// First returns the first key or the empty string.
func (k OrderedKeys) First() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// OptionalValue records whether a key was given a non-null value.
type OptionalValue struct {
	Set   bool
	Value any
}

// UnmarshalYAML implements custom YAML unmarshaling for OptionalValue.
func (o *OptionalValue) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// StepList is a transform chain as declared: each element is either a bare
// step name or a single-key map from step name to parameters.
type StepList []models.StepSpec

// UnmarshalYAML implements custom YAML unmarshaling for StepList.
func (s *StepList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*s = nil
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: transform must be a list", node.Line)
	}

	steps := make(StepList, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			steps = append(steps, models.StepSpec{Name: item.Value})

		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return fmt.Errorf("line %d: transform step must have exactly one name", item.Line)
			}
			var params any
			if err := item.Content[1].Decode(&params); err != nil {
				return err
			}
			steps = append(steps, models.StepSpec{Name: item.Content[0].Value, Params: params})

		default:
			return fmt.Errorf("line %d: transform step must be a name or a single-key map", item.Line)
		}
	}
	*s = steps
	return nil
}

// Decode parses mapping YAML without validating it.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
