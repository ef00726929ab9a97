package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockBackend answers locally without calling any API, for offline demos.
type MockBackend struct{}

func (m MockBackend) Generate(ctx context.Context, payload Payload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", payload.Topic))
	sb.WriteString(fmt.Sprintf("Drafted by **%s** for %s, in a %s tone.\n\n", payload.Assistant, payload.Audience, payload.Tone))
	sb.WriteString("## Request\n\n")
	sb.WriteString(fmt.Sprintf("- brand: %s\n", payload.BrandType))
	sb.WriteString(fmt.Sprintf("- template: `%s`\n", payload.Template))
	sb.WriteString(fmt.Sprintf("- instructions: `%s`\n", payload.SystemJSON))
	sb.WriteString(fmt.Sprintf("- model: %s (temperature %.2f, max %d tokens)\n", payload.Model, payload.Temperature, payload.MaxTokens))
	return sb.String(), nil
}
