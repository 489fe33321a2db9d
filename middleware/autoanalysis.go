package middleware

import "strings"

// AutoAnalysisConfig configures AutoAnalysisLayer. The default values match
// original_source/.../middleware/layers/auto_analysis.rs's AutoAnalysisConfig
// exactly so ported deployments see the same trigger behavior.
type AutoAnalysisConfig struct {
	// DataPatterns are case-insensitive substrings whose presence suggests
	// a response contains raw, unanalyzed data.
	DataPatterns []string
	// AnalysisPatterns are case-insensitive substrings whose presence
	// suggests a response already contains analysis, suppressing the
	// follow-up prompt.
	AnalysisPatterns []string
	// AnalysisPrompt is the follow-up injected when data is detected
	// without accompanying analysis.
	AnalysisPrompt string
	// MinResponseLength is the minimum response length, in bytes, before a
	// response is even considered for analysis.
	MinResponseLength int
	// Enabled disables the layer's trigger entirely when false, while still
	// keeping it registered in the stack.
	Enabled bool
}

// DefaultAutoAnalysisConfig returns the configuration ported from the
// original implementation's Default impl.
func DefaultAutoAnalysisConfig() AutoAnalysisConfig {
	return AutoAnalysisConfig{
		DataPatterns: []string{
			"resources found",
			"results:",
			"items returned",
			"data retrieved",
			"records:",
		},
		AnalysisPatterns: []string{
			"summary:",
			"analysis:",
			"in summary",
			"key findings:",
			"overview:",
		},
		AnalysisPrompt:    "Please provide a brief summary and analysis of these results, highlighting key findings and any notable patterns.",
		MinResponseLength: 500,
		Enabled:           true,
	}
}

// WithDataPattern returns a copy of c with pattern appended to DataPatterns.
func (c AutoAnalysisConfig) WithDataPattern(pattern string) AutoAnalysisConfig {
	c.DataPatterns = append(append([]string{}, c.DataPatterns...), pattern)
	return c
}

// WithAnalysisPattern returns a copy of c with pattern appended to
// AnalysisPatterns.
func (c AutoAnalysisConfig) WithAnalysisPattern(pattern string) AutoAnalysisConfig {
	c.AnalysisPatterns = append(append([]string{}, c.AnalysisPatterns...), pattern)
	return c
}

// WithPrompt returns a copy of c with AnalysisPrompt replaced.
func (c AutoAnalysisConfig) WithPrompt(prompt string) AutoAnalysisConfig {
	c.AnalysisPrompt = prompt
	return c
}

// WithMinLength returns a copy of c with MinResponseLength replaced.
func (c AutoAnalysisConfig) WithMinLength(n int) AutoAnalysisConfig {
	c.MinResponseLength = n
	return c
}

// WithEnabled returns a copy of c with Enabled replaced.
func (c AutoAnalysisConfig) WithEnabled(enabled bool) AutoAnalysisConfig {
	c.Enabled = enabled
	return c
}

// AutoAnalysisLayer detects assistant responses that dump raw data without
// accompanying analysis and injects a follow-up prompt asking the model to
// summarize it. It implements Layer via Base for OnPreResponse, which it
// does not need.
type AutoAnalysisLayer struct {
	Base
	config AutoAnalysisConfig
}

// NewAutoAnalysisLayer constructs the layer with the given configuration.
func NewAutoAnalysisLayer(config AutoAnalysisConfig) *AutoAnalysisLayer {
	return &AutoAnalysisLayer{config: config}
}

// NewAutoAnalysisLayerWithDefaults constructs the layer with
// DefaultAutoAnalysisConfig.
func NewAutoAnalysisLayerWithDefaults() *AutoAnalysisLayer {
	return NewAutoAnalysisLayer(DefaultAutoAnalysisConfig())
}

// Name implements Layer.
func (l *AutoAnalysisLayer) Name() string {
	return "AutoAnalysis"
}

func (l *AutoAnalysisLayer) containsAny(response string, patterns []string) bool {
	lower := strings.ToLower(response)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func (l *AutoAnalysisLayer) shouldAnalyze(response string) bool {
	if !l.config.Enabled {
		return false
	}
	if len(response) < l.config.MinResponseLength {
		return false
	}
	if !l.containsAny(response, l.config.DataPatterns) {
		return false
	}
	if l.containsAny(response, l.config.AnalysisPatterns) {
		return false
	}
	return true
}

// OnPostResponse implements Layer: it injects the configured analysis
// prompt exactly when the response looks like raw, unanalyzed data.
func (l *AutoAnalysisLayer) OnPostResponse(response string, _ *LayerContext) PostResponseAction {
	if l.shouldAnalyze(response) {
		return InjectFollowUp(l.config.AnalysisPrompt)
	}
	return PassThrough
}

// OnToolComplete implements Layer. It has no decision to make here; the
// original logs at trace level when a data-producing tool succeeds, which
// this port leaves to the execution loop's own telemetry instead of
// duplicating a log call inside the layer.
func (l *AutoAnalysisLayer) OnToolComplete(string, bool, *LayerContext) {}
