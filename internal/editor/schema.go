package editor

import (
	"encoding/json"
	"reflect"
	"slices"
	"sync"

	"github.com/fpt/editagent/pkg/message"
	"github.com/invopop/jsonschema"
)

// ToolDescription is shown to models that do not know the editor tool natively.
const ToolDescription = "View, create and edit text files. " +
	"Commands: view (show a file with line numbers, optional view_range), " +
	"create (new file with file_text, never overwrites), " +
	"str_replace (replace old_str with new_str; old_str must match exactly once), " +
	"insert (insert new_str after insert_line lines; 0 inserts at the top), " +
	"undo_edit (revert the file to its state before the first edit since the last undo)."

// Input is the tool input shape. It only drives schema generation; parsing is done by ParseRequest.
type Input struct {
	Command    Command `json:"command" jsonschema:"required,enum=view,enum=create,enum=str_replace,enum=insert,enum=undo_edit,description=The operation to run"`
	Path       string  `json:"path" jsonschema:"required,description=File path relative to the working directory or absolute"`
	FileText   string  `json:"file_text,omitempty" jsonschema:"description=Content of the new file (create)"`
	OldStr     string  `json:"old_str,omitempty" jsonschema:"description=Exact text to replace including whitespace and indentation (str_replace)"`
	NewStr     string  `json:"new_str,omitempty" jsonschema:"description=Replacement text (str_replace) or text to insert (insert)"`
	InsertLine *int    `json:"insert_line,omitempty" jsonschema:"minimum=0,description=Number of existing lines to insert after; 0 inserts at the top (insert)"`
	ViewRange  []int   `json:"view_range,omitempty" jsonschema:"minItems=2,maxItems=2,description=Inclusive 1-indexed [start end] line range; end -1 means end of file (view)"`
}

var (
	schemaOnce  sync.Once
	inputSchema *jsonschema.Schema
)

// InputSchema returns the JSON schema reflected from Input.
func InputSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			RequiredFromJSONSchemaTags: true,
			DoNotReference:             true,
			Anonymous:                  true,
		}
		inputSchema = reflector.ReflectFromType(reflect.TypeOf(Input{}))
		inputSchema.Version = ""
	})
	return inputSchema
}

// InputSchemaJSON returns InputSchema encoded as JSON.
func InputSchemaJSON() json.RawMessage {
	data, err := json.Marshal(InputSchema())
	if err != nil {
		// the schema is built from a static struct
		panic(err)
	}
	return data
}

// ToolArguments converts the input schema into tool arguments for the provider clients.
func ToolArguments() []message.ToolArgument {
	schema := InputSchema()

	var args []message.ToolArgument
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		arg := message.ToolArgument{
			Name:        message.ToolName(pair.Key),
			Description: message.ToolDescription(prop.Description),
			Required:    slices.Contains(schema.Required, pair.Key),
			Type:        prop.Type,
		}
		if arg.Type == "" {
			arg.Type = "string"
		}

		extra := map[string]any{}
		if len(prop.Enum) > 0 {
			extra["enum"] = prop.Enum
		}
		if prop.Items != nil && prop.Items.Type != "" {
			extra["items"] = map[string]any{"type": prop.Items.Type}
		}
		if prop.MinItems != nil {
			extra["minItems"] = *prop.MinItems
		}
		if prop.MaxItems != nil {
			extra["maxItems"] = *prop.MaxItems
		}
		if len(extra) > 0 {
			arg.Properties = extra
		}
		args = append(args, arg)
	}
	return args
}
