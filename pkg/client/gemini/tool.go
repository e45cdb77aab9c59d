package gemini

import (
	"sort"

	"google.golang.org/genai"

	"github.com/fpt/editagent/pkg/agent/domain"
	"github.com/fpt/editagent/pkg/message"
)

// toGeminiContents converts the transcript. System messages are joined into
// the system instruction. Consecutive tool calls form one model turn and
// consecutive results one user turn, matched by function name.
func toGeminiContents(msgs []message.Message) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   []*genai.Part
		pending  *genai.Content
	)
	flush := func() {
		if pending != nil {
			contents = append(contents, pending)
			pending = nil
		}
	}
	push := func(role genai.Role, part *genai.Part) {
		if pending != nil && pending.Role != string(role) {
			flush()
		}
		if pending == nil {
			pending = &genai.Content{Role: string(role)}
		}
		pending.Parts = append(pending.Parts, part)
	}

	for _, msg := range msgs {
		switch m := msg.(type) {
		case *message.ToolCallMessage:
			part := genai.NewPartFromFunctionCall(string(m.ToolName()), m.ToolArguments())
			push(genai.RoleModel, part)
		case *message.ToolResultMessage:
			key := "output"
			if m.IsError {
				key = "error"
			}
			part := genai.NewPartFromFunctionResponse(string(m.ToolName), map[string]any{key: m.Result})
			push(genai.RoleUser, part)
		case *message.ToolCallBatchMessage:
			// the individual calls are recorded separately
			continue
		default:
			flush()
			switch msg.Type() {
			case message.MessageTypeSystem:
				system = append(system, genai.NewPartFromText(msg.Content()))
			case message.MessageTypeAssistant:
				if msg.Content() != "" {
					contents = append(contents, genai.NewContentFromText(msg.Content(), genai.RoleModel))
				}
			case message.MessageTypeUser:
				contents = append(contents, genai.NewContentFromText(msg.Content(), genai.RoleUser))
			}
		}
	}
	flush()

	if len(system) == 0 {
		return contents, nil
	}
	return contents, genai.NewContentFromParts(system, genai.RoleUser)
}

// convertToolsToGemini groups all function declarations under one tool.
func convertToolsToGemini(tools map[message.ToolName]message.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, name := range names {
		tool := tools[message.ToolName(name)]
		properties := make(map[string]*genai.Schema)
		var required []string
		for _, arg := range tool.Arguments() {
			properties[string(arg.Name)] = convertArgumentToGeminiSchema(arg)
			if arg.Required {
				required = append(required, string(arg.Name))
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        name,
			Description: tool.Description().String(),
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertArgumentToGeminiSchema(arg message.ToolArgument) *genai.Schema {
	schema := &genai.Schema{
		Description: arg.Description.String(),
	}

	switch arg.Type {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		schema.Items = &genai.Schema{Type: genai.TypeString}
		if items, ok := arg.Properties["items"].(map[string]any); ok {
			if t, ok := items["type"].(string); ok {
				schema.Items = &genai.Schema{Type: schemaType(t)}
			}
		}
	case "object":
		schema.Type = genai.TypeObject
	default:
		schema.Type = genai.TypeString
	}

	if values, ok := arg.Properties["enum"].([]any); ok {
		for _, v := range values {
			if s, ok := v.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	return schema
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// convertToolChoiceToGemini maps the tool choice onto FunctionCallingConfig.
func convertToolChoiceToGemini(toolChoice domain.ToolChoice, tools []*genai.Tool) *genai.ToolConfig {
	if len(tools) == 0 {
		return nil
	}

	cfg := &genai.FunctionCallingConfig{}
	switch toolChoice.Type {
	case domain.ToolChoiceNone:
		cfg.Mode = genai.FunctionCallingConfigModeNone
	case domain.ToolChoiceAny:
		cfg.Mode = genai.FunctionCallingConfigModeAny
	case domain.ToolChoiceTool:
		cfg.Mode = genai.FunctionCallingConfigModeAny
		cfg.AllowedFunctionNames = []string{string(toolChoice.Name)}
	default:
		cfg.Mode = genai.FunctionCallingConfigModeAuto
	}

	return &genai.ToolConfig{FunctionCallingConfig: cfg}
}
