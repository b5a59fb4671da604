package migrations

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// GetInitialSchema returns the embedded database schema, concatenating the
// migration files in lexical order.
func GetInitialSchema() (string, error) {
	entries, err := schemaFS.ReadDir("sql")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var schema string
	for _, name := range names {
		content, err := schemaFS.ReadFile("sql/" + name)
		if err != nil {
			return "", fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		schema += string(content) + "\n"
	}

	if schema == "" {
		return "", fmt.Errorf("no migration files embedded")
	}
	return schema, nil
}
