package logger

// Intention represents the semantic intent of a log line, orthogonal to level.
// Source stays free of emoji; the console handler maps intentions to icons.
type Intention string

const (
	IntentionTool       Intention = "tool"
	IntentionStatistics Intention = "statistics"
	IntentionStatus     Intention = "status"
	IntentionOutput     Intention = "output"
	IntentionSuccess    Intention = "success"
	IntentionDebug      Intention = "debug"
	IntentionCancel     Intention = "cancel"
	IntentionConfig     Intention = "config"
	IntentionUndo       Intention = "undo"
	IntentionWarning    Intention = "warning"
	IntentionError      Intention = "error"
)

func iconFor(i Intention) string {
	switch i {
	case IntentionTool:
		return "🔧"
	case IntentionStatistics:
		return "📊"
	case IntentionStatus:
		return "ℹ️"
	case IntentionOutput:
		return "↳"
	case IntentionSuccess:
		return "✅"
	case IntentionDebug:
		return "🛠️"
	case IntentionCancel:
		return "🛑"
	case IntentionConfig:
		return "⚙️"
	case IntentionUndo:
		return "↩️"
	case IntentionWarning:
		return "⚠️"
	case IntentionError:
		return "❌"
	default:
		return "➤"
	}
}
