package intent

import "sort"

// Option is one selectable clarification card shown to the user when the
// answer wasn't grounded in retrieved context.
type Option struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	Icon       string  `json:"icon"`
	Confidence float64 `json:"confidence"`
}

type optionTemplate struct {
	id    int
	label string
	text  string
	icon  string
}

var optionTemplates = []optionTemplate{
	{1, ProductInfo, "Product information and availability", "🛍️"},
	{2, OrderTracking, "Order tracking and status", "📦"},
	{3, Returns, "Returns and refunds", "↩️"},
	{4, Shipping, "Shipping and delivery", "🚚"},
}

// ClarificationOptions maps the query's intent scores onto the fixed option
// cards, keeps the top three by confidence, and appends the rephrase escape
// hatch. Always exactly four options.
func ClarificationOptions(query string) []Option {
	scores := Classify(query)

	options := make([]Option, 0, len(optionTemplates))
	for _, tmpl := range optionTemplates {
		options = append(options, Option{
			ID:         tmpl.id,
			Text:       tmpl.text,
			Icon:       tmpl.icon,
			Confidence: scores[tmpl.label],
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Confidence > options[j].Confidence
	})
	options = options[:3]

	options = append(options, Option{
		ID:         0,
		Text:       "None of these - let me rephrase",
		Icon:       "✍️",
		Confidence: 0,
	})

	return options
}
