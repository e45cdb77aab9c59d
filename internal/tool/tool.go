package tool

import (
	pkgLogger "github.com/fpt/editagent/pkg/logger"
	"github.com/fpt/editagent/pkg/message"
)

func logger() *pkgLogger.Logger { return pkgLogger.NewComponentLogger("tool") }

// registeredTool is the message.Tool used by the local tool managers
type registeredTool struct {
	name        message.ToolName
	description message.ToolDescription
	arguments   []message.ToolArgument
	handler     message.ToolHandler
}

func (t *registeredTool) RawName() message.ToolName            { return t.name }
func (t *registeredTool) Name() message.ToolName               { return t.name }
func (t *registeredTool) Description() message.ToolDescription { return t.description }
func (t *registeredTool) Arguments() []message.ToolArgument    { return t.arguments }
func (t *registeredTool) Handler() message.ToolHandler         { return t.handler }
