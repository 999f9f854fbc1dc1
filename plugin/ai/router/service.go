package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/usetownhall/townhall/plugin/ai"
)

const (
	defaultCacheEntries = 256
	defaultCacheTTL     = 5 * time.Minute
)

// classifierService implements ClassifierService with a hybrid approach:
// fast rule matching first, then LLM for uncertain cases, then a safe
// fallback to dialogue when the LLM is unavailable.
type classifierService struct {
	llm   ai.LLMService
	cache *lruCache
}

// NewClassifierService creates a hybrid rule+LLM classifier.
// llm may be nil, in which case uncertain inputs fall back to dialogue.
func NewClassifierService(llm ai.LLMService) ClassifierService {
	return &classifierService{
		llm:   llm,
		cache: newLRUCache(defaultCacheEntries, defaultCacheTTL),
	}
}

func (s *classifierService) Classify(ctx context.Context, input string, history []string) (*Result, error) {
	// Step 1: rule-based matching (fast path).
	if result := ruleMatch(input); result != nil {
		slog.Debug("intent classified by rules",
			"intent", result.Intent,
			"confidence", result.Confidence)
		return result, nil
	}

	// Step 2: cached LLM verdict. History-free key is acceptable because
	// the entry is short-lived and only bypasses the LLM, not routing.
	key := cacheKey(input)
	if cached, found := s.cache.Get(key); found {
		return &Result{Intent: cached.Intent, Confidence: cached.Confidence, Method: "cache"}, nil
	}

	// Step 3: LLM for uncertain cases.
	if s.llm != nil {
		result, err := llmClassify(ctx, s.llm, input, history)
		if err == nil {
			s.cache.Set(key, result)
			return result, nil
		}
		slog.Warn("LLM classification failed, defaulting to dialogue", "error", err)
	}

	return &Result{Intent: IntentDialogue, Confidence: 0.5, Method: "fallback"}, nil
}
