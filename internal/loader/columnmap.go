package loader

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// columnMapFile is the on-disk shape of a column-alias mapping. Keys are
// canonical column names, values are the header names used by the source
// export, e.g.
//
//	columns:
//	  gbifID: occurrenceID
//	  decimalLatitude: lat
type columnMapFile struct {
	Columns map[string]string `yaml:"columns"`
}

// loadColumnMap reads an optional YAML alias file and returns a lookup from
// lowercased source header name to canonical column name. An empty path
// yields an empty map.
func loadColumnMap(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read column map %s", path)
	}

	var file columnMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "loader: parse column map %s", path)
	}

	known := make(map[string]bool, len(requiredColumns))
	for _, name := range requiredColumns {
		known[name] = true
	}

	aliases := make(map[string]string, len(file.Columns))
	for canonical, source := range file.Columns {
		if !known[canonical] {
			return nil, eris.Errorf("loader: column map names unknown column %q", canonical)
		}
		aliases[strings.ToLower(source)] = canonical
	}
	return aliases, nil
}
