package util

import (
	"encoding/json"
	"fmt"
)

// PrintPrettyJSON prints v as indented JSON on stdout.
func PrintPrettyJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
