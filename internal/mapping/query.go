package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Query evaluates a JMESPath expression against the encoded document, e.g.
// "devices[].name" or "devices[0].axes[?invert].code".
func Query(doc *Document, expression string) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate '%s': %w", expression, err)
	}
	return result, nil
}
