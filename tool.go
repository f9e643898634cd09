package litellm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// ToolType identifies the kind of a tool definition.
type ToolType string

// ToolTypeFunction is a client-executed function tool.
const ToolTypeFunction ToolType = "function"

// Tool is a capability the model may invoke.
type Tool interface {
	ToolType() ToolType
	ToolName() string
}

// FunctionTool is a function the caller executes on the model's behalf.
// InputSchema is a JSON Schema describing the arguments.
type FunctionTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolType implements Tool.
func (FunctionTool) ToolType() ToolType { return ToolTypeFunction }

// ToolName implements Tool.
func (t FunctionTool) ToolName() string { return t.Name }

// ValidateInput checks a raw JSON argument payload against the tool's input
// schema. Payloads that fail to parse are repaired first.
func (t FunctionTool) ValidateInput(input string) error {
	if t.InputSchema == nil {
		return nil
	}

	var args any
	if err := json.Unmarshal([]byte(RepairToolInput(input)), &args); err != nil {
		return fmt.Errorf("tool %s: arguments are not valid JSON: %w", t.Name, err)
	}

	schemaBytes, err := json.Marshal(t.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %s: failed to marshal input schema: %w", t.Name, err)
	}

	compiler := jsonschema.NewCompiler()
	validator, err := compiler.Compile(schemaBytes)
	if err != nil {
		return fmt.Errorf("tool %s: invalid input schema: %w", t.Name, err)
	}

	result := validator.Validate(args)
	if !result.IsValid() {
		var errMsgs []string
		for field, validationErr := range result.Errors {
			errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", field, validationErr.Message))
		}
		return fmt.Errorf("tool %s: arguments failed validation: %s", t.Name, strings.Join(errMsgs, "; "))
	}
	return nil
}
