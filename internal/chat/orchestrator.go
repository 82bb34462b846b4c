package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shop-agent/backend/internal/adapters"
	"github.com/shop-agent/backend/internal/cache"
	"github.com/shop-agent/backend/internal/history"
	"github.com/shop-agent/backend/internal/intent"
	"github.com/shop-agent/backend/internal/llm"
	"github.com/shop-agent/backend/internal/metrics"
	"github.com/shop-agent/backend/internal/vector"
	"github.com/shop-agent/backend/pkg/logger"
)

// ModelProvider is the language-model surface the pipeline consumes.
type ModelProvider interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
	CompleteWithTools(ctx context.Context, system, user string, specs []llm.ToolSpec) (*llm.ToolDecision, error)
}

// Retriever produces ranked matches for a query. Failures surface as an
// empty slice, never an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string) []vector.Match
}

// Result is the resolved answer for one turn. Clarification is present only
// on answers that were not grounded in retrieved context.
type Result struct {
	Answer        string          `json:"answer"`
	Sources       []string        `json:"sources"`
	Clarification []intent.Option `json:"clarification,omitempty"`
}

// Options are the tuned pipeline parameters. The defaults mirror production
// settings but everything here is operator-configurable.
type Options struct {
	HighConfidence float64
	CacheTTL       time.Duration
	Temperature    float32
}

func (o *Options) applyDefaults() {
	if o.HighConfidence == 0 {
		o.HighConfidence = 0.8
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 300 * time.Second
	}
	if o.Temperature == 0 {
		o.Temperature = 0.3
	}
}

const (
	contextInstruction = "Answer based ONLY on this context. Always cite sources."
	generalSystem      = "You are a helpful e-commerce assistant. Answer concisely and clearly."
)

// orderKeywords flags under-specified order queries before any retrieval or
// model spend.
var orderKeywords = []string{
	"order", "payment", "refund", "shipment", "delivery", "track", "status",
	"purchase", "transaction", "billing", "invoice", "receipt",
}

// orderIDPatterns recognize order-id-shaped tokens, e.g. AB-1234, 20240831,
// ORD98765.
var orderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z]{2,}-\d{4,}`),
	regexp.MustCompile(`\d{6,}`),
	regexp.MustCompile(`[A-Za-z]+\d{5,}`),
}

var orderIDPrompts = []string{
	"I can help with that. Could you share your order ID?",
	"Sure! Please provide your order ID so I can look it up.",
	"Happy to check on that. What's your order number?",
}

// cannedAnswers are the deterministic last-resort replies keyed by top
// intent, used when no model provider is reachable.
var cannedAnswers = map[string]string{
	intent.ProductInfo:   "I can help with product details and availability. Please provide a product name or SKU.",
	intent.OrderTracking: "I can help track your order. Please share your order ID.",
	intent.Returns:       "I can help with returns or refunds. Do you have your order ID handy?",
	intent.Shipping:      "I can help with shipping options and delivery times. Which location are you shipping to?",
}

// Orchestrator sequences the resolution pipeline for each incoming turn:
// order-id short-circuit, response cache, high-confidence retrieval, tool
// call, general model answer, heuristic canned answer. The model provider
// and database adapter are optional; missing collaborators degrade to the
// later stages.
type Orchestrator struct {
	model     ModelProvider
	retriever Retriever
	history   history.Manager
	cache     cache.Cache
	adapter   adapters.DatabaseAdapter
	opts      Options
}

func NewOrchestrator(
	model ModelProvider,
	retriever Retriever,
	hist history.Manager,
	respCache cache.Cache,
	adapter adapters.DatabaseAdapter,
	opts Options,
) *Orchestrator {
	opts.applyDefaults()
	return &Orchestrator{
		model:     model,
		retriever: retriever,
		history:   hist,
		cache:     respCache,
		adapter:   adapter,
		opts:      opts,
	}
}

// Resolve answers one (sessionID, message) turn. Both the user turn and the
// assistant's final text are recorded in session history; on an internal
// failure the error text is recorded as the assistant turn so the
// transcript reflects the failed turn.
func (o *Orchestrator) Resolve(ctx context.Context, sessionID, message string) (*Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	start := time.Now()
	defer func() {
		metrics.ChatDuration.Observe(time.Since(start).Seconds())
	}()

	o.record(ctx, sessionID, history.RoleUser, message)

	result, err := o.resolve(ctx, message)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(metrics.PathError).Inc()
		o.record(ctx, sessionID, history.RoleAssistant, err.Error())
		return nil, fmt.Errorf("resolve chat turn: %w", err)
	}

	o.record(ctx, sessionID, history.RoleAssistant, result.Answer)
	return result, nil
}

func (o *Orchestrator) resolve(ctx context.Context, message string) (*Result, error) {
	if needsOrderID(message) {
		metrics.ChatRequestsTotal.WithLabelValues(metrics.PathClarification).Inc()
		return &Result{
			Answer:  orderIDPrompts[rand.Intn(len(orderIDPrompts))],
			Sources: []string{},
		}, nil
	}

	key := responseKey(message)
	if payload, ok := o.cache.Get(ctx, key); ok {
		var cached Result
		if err := json.Unmarshal(payload, &cached); err == nil {
			metrics.CacheHits.WithLabelValues("response").Inc()
			metrics.ChatRequestsTotal.WithLabelValues(metrics.PathCache).Inc()
			return &cached, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("response").Inc()

	var matches []vector.Match
	if o.retriever != nil {
		matches = o.retriever.Retrieve(ctx, message)
	}
	metrics.RetrievalMatches.Observe(float64(len(matches)))

	if meanScore(matches) >= o.opts.HighConfidence && o.model != nil {
		result, err := o.answerFromContext(ctx, message, matches)
		if err == nil {
			metrics.ChatRequestsTotal.WithLabelValues(metrics.PathContext).Inc()
			o.store(ctx, key, result)
			return result, nil
		}
		metrics.ProviderErrors.Inc()
		logger.Warn("context-grounded answer failed, falling back", zap.Error(err))
	}

	result := o.fallback(ctx, message)
	o.store(ctx, key, result)
	return result, nil
}

// fallback runs the tool, general, and heuristic stages in order. It always
// produces an answer.
func (o *Orchestrator) fallback(ctx context.Context, message string) *Result {
	if o.model == nil {
		return o.heuristic(message)
	}

	decision, err := o.model.CompleteWithTools(ctx, generalSystem, message, toolSpecs)
	if err != nil {
		metrics.ProviderErrors.Inc()
		logger.Warn("tool completion failed, using heuristic answer", zap.Error(err))
		return o.heuristic(message)
	}

	if decision.Call != nil && o.adapter != nil {
		answer, err := executeTool(ctx, o.adapter, decision.Call)
		if err == nil {
			metrics.ChatRequestsTotal.WithLabelValues(metrics.PathTool).Inc()
			return &Result{
				Answer:        answer,
				Sources:       []string{},
				Clarification: intent.ClarificationOptions(message),
			}
		}
		logger.Warn("tool execution failed, using general answer",
			zap.String("tool", decision.Call.Name),
			zap.Error(err))
	}

	answer := decision.Content
	if answer == "" {
		answer, err = o.model.Complete(ctx, generalSystem, message, o.opts.Temperature)
		if err != nil {
			metrics.ProviderErrors.Inc()
			logger.Warn("general completion failed, using heuristic answer", zap.Error(err))
			return o.heuristic(message)
		}
	}

	metrics.ChatRequestsTotal.WithLabelValues(metrics.PathGeneral).Inc()
	return &Result{
		Answer:        answer,
		Sources:       []string{},
		Clarification: intent.ClarificationOptions(message),
	}
}

func (o *Orchestrator) heuristic(message string) *Result {
	metrics.ChatRequestsTotal.WithLabelValues(metrics.PathHeuristic).Inc()
	top := intent.TopLabel(intent.Classify(message))
	return &Result{
		Answer:        cannedAnswers[top],
		Sources:       []string{},
		Clarification: intent.ClarificationOptions(message),
	}
}

// answerFromContext asks the model to answer using only the retrieved
// chunks. Sources keep match-rank order, first occurrence wins.
func (o *Orchestrator) answerFromContext(ctx context.Context, message string, matches []vector.Match) (*Result, error) {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Metadata.Text)
	}

	system := contextInstruction + "\n" + b.String()
	answer, err := o.model.Complete(ctx, system, message, o.opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	seen := make(map[string]bool, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Metadata.Source == "" || seen[m.Metadata.Source] {
			continue
		}
		seen[m.Metadata.Source] = true
		sources = append(sources, m.Metadata.Source)
	}

	return &Result{Answer: answer, Sources: sources}, nil
}

func (o *Orchestrator) record(ctx context.Context, sessionID, role, content string) {
	if err := o.history.Append(ctx, sessionID, role, content); err != nil {
		logger.Warn("history append failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (o *Orchestrator) store(ctx context.Context, key string, result *Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	o.cache.Set(ctx, key, payload, o.opts.CacheTTL)
}

// responseKey caches on the literal message text, shared across sessions so
// the same question reuses the same answer within the TTL.
func responseKey(message string) string {
	return "ans:" + message
}

func meanScore(matches []vector.Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		sum += m.Score
	}
	return sum / float64(len(matches))
}

// needsOrderID reports whether the message talks about an order without
// naming one.
func needsOrderID(message string) bool {
	lower := strings.ToLower(message)
	keyword := false
	for _, w := range orderKeywords {
		if strings.Contains(lower, w) {
			keyword = true
			break
		}
	}
	if !keyword {
		return false
	}
	for _, p := range orderIDPatterns {
		if p.MatchString(message) {
			return false
		}
	}
	return true
}
