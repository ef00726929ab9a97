package generator

var examples = []Example{
	{
		Title:     "Wellness newsletter",
		Topic:     "5 morning habits for better mental health",
		BrandType: "Wellness Coach",
		Audience:  "women 25-40",
		Tone:      "warm",
	},
	{
		Title:     "SaaS launch post",
		Topic:     "Announcing our AI meeting-notes assistant",
		BrandType: "SaaS startup",
		Audience:  "founders",
		Tone:      "confident",
	},
	{
		Title:     "Coffee shop promo",
		Topic:     "Autumn menu: pumpkin spice cold brew is back",
		BrandType: "Local coffee shop",
		Audience:  "students and remote workers",
		Tone:      "playful",
	},
}

// Examples returns the canned examples shown next to the form.
func Examples() []Example {
	out := make([]Example, len(examples))
	copy(out, examples)
	return out
}

// ExampleAt returns the i-th example.
func ExampleAt(i int) (Example, bool) {
	if i < 0 || i >= len(examples) {
		return Example{}, false
	}
	return examples[i], true
}
