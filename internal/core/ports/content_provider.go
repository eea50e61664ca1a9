package ports

import (
	"context"
	"encoding/json"
)

// ContentProvider calls a remote tool server. CallTool uses the first name in
// tools that the server offers and returns the tool's raw content payload.
type ContentProvider interface {
	CallTool(ctx context.Context, tools []string, args map[string]any) (tool string, content json.RawMessage, err error)
}
