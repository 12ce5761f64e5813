// Package output serializes run results for the command line.
package output

import (
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// ToJSON serializes v, indented with two spaces when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return models.JSON.MarshalIndent(v, "", "  ")
	}
	return models.JSON.Marshal(v)
}
