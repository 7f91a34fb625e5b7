package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// argsSchema describes the body of a function call: up to two string arguments.
// Empty arrays pass validation so that the dispatcher reports the missing scope itself.
const argsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {"type": "string"},
	"maxItems": 2
}`

type argsValidator struct {
	schema *jsonschema.Schema
}

func newArgsValidator() (*argsValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(argsSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse args schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err = c.AddResource("args.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add args schema resource: %w", err)
	}
	compiled, err := c.Compile("args.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile args schema: %w", err)
	}
	return &argsValidator{schema: compiled}, nil
}

// decode validates the JSON body and returns the arguments.
func (v *argsValidator) decode(body io.Reader) ([]string, error) {
	inst, err := jsonschema.UnmarshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("malformed json: %w", err)
	}
	if err = v.schema.Validate(inst); err != nil {
		return nil, err
	}

	items, _ := inst.([]any)
	args := make([]string, 0, len(items))
	for _, item := range items {
		args = append(args, item.(string))
	}
	return args, nil
}
