package generator

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	blogOutlineTemplate   = "templates/blog_outline.txt"
	socialCaptionTemplate = "templates/social_caption.txt"

	defaultBrandType = "Generic Brand"
	defaultAudience  = "general audience"
)

// TemplatePath picks the server-side prompt template for a platform.
// LinkedIn gets the long-form outline, everything else a caption.
func TemplatePath(platform string) string {
	if platform == "LinkedIn" {
		return blogOutlineTemplate
	}
	return socialCaptionTemplate
}

// SystemInstructionsPath is the instructions file of an assistant persona.
func SystemInstructionsPath(assistant string) string {
	return fmt.Sprintf("custom_instructions/%s.json", strings.ToLower(assistant))
}

// BuildPayload projects the form fields onto the request body.
func BuildPayload(p Params) Payload {
	brandType := p.BrandType
	if brandType == "" {
		brandType = defaultBrandType
	}
	audience := p.Audience
	if audience == "" {
		audience = defaultAudience
	}
	return Payload{
		Assistant:   p.Assistant,
		Template:    TemplatePath(p.Platform),
		BrandType:   brandType,
		Topic:       p.Topic,
		Audience:    audience,
		Tone:        p.Tone,
		SystemJSON:  SystemInstructionsPath(p.Assistant),
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}

// Validate checks the fields a form widget would normally constrain. The
// topic is not checked here; an empty topic is reported by Submit.
func (p Params) Validate() error {
	if !slices.Contains(Assistants, p.Assistant) {
		return fmt.Errorf("unknown assistant %q", p.Assistant)
	}
	if !slices.Contains(Platforms, p.Platform) {
		return fmt.Errorf("unknown platform %q", p.Platform)
	}
	if math.IsNaN(p.Temperature) || p.Temperature < 0 || p.Temperature > 1 {
		return fmt.Errorf("temperature %v out of range [0,1]", p.Temperature)
	}
	if p.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative, got %d", p.MaxTokens)
	}
	return nil
}
