package router

import "strings"

// ruleMatch attempts fast keyword-based classification.
// Returns nil if no confident match is found and the LLM is needed.
func ruleMatch(input string) *Result {
	lower := strings.ToLower(input)

	incidentKeywords := []string{
		"stole", "stolen", "theft", "robbed", "robbery", "crime", "assault",
		"attacked", "vandal", "broke into", "break-in", "accident", "lost my",
		"found a", "missing", "violation", "illegal", "damaged", "hit and run",
	}
	feedbackKeywords := []string{
		"suggest", "suggestion", "recommend", "feedback", "should add",
		"should build", "would be nice", "improve", "complaint", "complain",
		"i think the city", "propose", "great job", "love the", "hate the",
	}
	insightsKeywords := []string{
		"statistics", "crime rate", "insights", "how many incidents",
		"how safe", "numbers", "trend", "data about", "overview of reports",
	}

	incidentScore := keywordScore(lower, incidentKeywords)
	feedbackScore := keywordScore(lower, feedbackKeywords)
	insightsScore := keywordScore(lower, insightsKeywords)

	// Insights requests are phrased distinctly enough that one hit is decisive.
	if insightsScore >= 2 && insightsScore >= incidentScore && insightsScore >= feedbackScore {
		return &Result{Intent: IntentInsights, Confidence: 0.85, Method: "rule"}
	}

	if incidentScore >= 2 && incidentScore > feedbackScore {
		return &Result{Intent: IntentIncident, Confidence: 0.85, Method: "rule"}
	}

	if feedbackScore >= 2 && feedbackScore > incidentScore {
		return &Result{Intent: IntentFeedback, Confidence: 0.80, Method: "rule"}
	}

	// No confident match - need LLM.
	return nil
}

func keywordScore(lower string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score += 2
		}
	}
	return score
}
