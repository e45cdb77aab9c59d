package openai

import (
	"sort"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/responses"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

var validSchemaTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// convertArgumentToProperty converts a ToolArgument to a JSON schema property.
// Unknown types fall back to string; extra keywords in Properties are merged in.
func convertArgumentToProperty(arg message.ToolArgument) map[string]any {
	argType := strings.TrimSpace(arg.Type)
	if !validSchemaTypes[argType] {
		argType = "string"
	}

	property := map[string]any{
		"type":        argType,
		"description": arg.Description.String(),
	}
	for k, v := range arg.Properties {
		property[k] = v
	}
	return property
}

// convertOpenAIArgsToToolArgs converts OpenAI function arguments JSON to tool argument values.
// Malformed JSON yields empty arguments, which the tool reports as missing parameters.
func convertOpenAIArgsToToolArgs(argsJSON string) message.ToolArgumentValues {
	args, err := message.ParseToolArguments(argsJSON)
	if err != nil {
		return message.ToolArgumentValues{}
	}
	return args
}

// convertTools converts domain tools to Responses API function tools, in name order.
func convertTools(tools map[message.ToolName]message.Tool) []responses.ToolUnionParam {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	responsesTools := make([]responses.ToolUnionParam, 0, len(names))
	for _, name := range names {
		tool := tools[message.ToolName(name)]

		properties := make(map[string]any)
		var required []string
		for _, arg := range tool.Arguments() {
			properties[string(arg.Name)] = convertArgumentToProperty(arg)
			if arg.Required {
				required = append(required, string(arg.Name))
			}
		}

		schema := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			schema["required"] = required
		}

		toolParam := responses.ToolParamOfFunction(name, schema, false)
		if desc := tool.Description().String(); desc != "" && toolParam.OfFunction != nil {
			toolParam.OfFunction.Description = openai.String(desc)
		}
		responsesTools = append(responsesTools, toolParam)
	}

	return responsesTools
}

// convertToolChoice converts domain ToolChoice to Responses API format
func convertToolChoice(toolChoice domain.ToolChoice) responses.ResponseNewParamsToolChoiceUnion {
	switch toolChoice.Type {
	case domain.ToolChoiceAny, domain.ToolChoiceTool:
		// Forcing a named function is expressed as "required" here.
		return responses.ResponseNewParamsToolChoiceUnion{
			OfToolChoiceMode: openai.Opt(responses.ToolChoiceOptionsRequired),
		}
	case domain.ToolChoiceNone:
		return responses.ResponseNewParamsToolChoiceUnion{
			OfToolChoiceMode: openai.Opt(responses.ToolChoiceOptionsNone),
		}
	default:
		return responses.ResponseNewParamsToolChoiceUnion{
			OfToolChoiceMode: openai.Opt(responses.ToolChoiceOptionsAuto),
		}
	}
}
