package guard

import "regexp"

// Rule is one labelled predicate over candidate text.
type Rule struct {
	Label   string
	Pattern *regexp.Regexp
}

func (r Rule) Matches(text string) bool { return r.Pattern.MatchString(text) }

func rule(label, pattern string) Rule {
	return Rule{Label: label, Pattern: regexp.MustCompile(pattern)}
}

// BlockRules are high-confidence injection signals. A match replaces the
// whole message. Evaluated top to bottom; the first match wins.
var BlockRules = []Rule{
	// instruction override
	rule("ignore-instructions", `(?i)ignore\s+(?:all\s+)?(?:previous|prior|above|earlier|your)\s+(?:instructions?|prompts?|rules?|directives?)`),
	rule("disregard-instructions", `(?i)disregard\s+(?:all\s+)?(?:your\s+)?(?:previous|prior|above|earlier)\s+(?:instructions?|prompts?|rules?)`),
	rule("disregard-instructions", `(?i)disregard\s+your\s+.*?(?:instructions?|prompts?|rules?)`),
	rule("forget-instructions", `(?i)forget\s+(?:everything|all|your)\s*(?:instructions?|prompts?|rules?|you\s+know)?`),
	rule("override-instructions", `(?i)override\s+(?:your|the|system)\s+.*?(?:instructions?|prompts?|rules?|behaviou?r)`),

	// role hijack
	rule("role-hijack", `(?i)you\s+are\s+now\s+(?:a|an|the|my)\b`),
	rule("role-hijack", `(?i)act\s+as\s+(?:a|an|the|if\s+you\s+were)\b`),
	rule("role-hijack", `(?i)pretend\s+(?:to\s+be|you\s*(?:are|'re))\b`),
	rule("role-hijack", `(?i)from\s+now\s+on,?\s+you\s*(?:are|will|must|should)\b`),

	// prompt extraction
	rule("prompt-extraction", `(?i)(?:show|reveal|repeat|print|display|output|tell\s+me)\s+(?:me\s+)?(?:your|the|system)\s+.*?(?:prompt|instructions?|rules?|configuration)`),
	rule("prompt-extraction", `(?i)what\s+(?:are|is)\s+your\s+(?:system\s+)?(?:prompt|instructions?|rules?)`),
	rule("prompt-extraction", `(?i)(?:translate|convert)\s+your\s+(?:system\s+)?(?:prompt|instructions)`),

	// jailbreak markers
	rule("jailbreak-dan", `(?i)\bDAN\b.*\bdo\s+anything\s+now\b`),
	rule("jailbreak", `(?i)\bjailbreak\b`),
	rule("jailbreak-devmode", `(?i)developer\s+mode\s*(?:enabled|on|activated)`),

	// fake structure
	rule("fake-role-marker", `(?im)^\s*(?:system|assistant)\s*:`),
	rule("fake-tag", `(?i)<\s*(?:system|instruction|prompt|im_start)`),
}

// SuspicionRules are lower-precision off-topic signals. A match keeps the
// text but prefixes a stay-in-role reminder.
var SuspicionRules = []Rule{
	rule("off-topic-math", `(?i)(?:resuelve|solve|calculate|compute|answer)\s.*(?:math|equation|problem|operation|operaci[oó]n)`),
	rule("off-topic-generation", `(?i)(?:write|generate|create|make)\s+(?:me\s+)?(?:a|an|the)\s+(?:poem|story|essay|code|script|song|letter)`),
	rule("off-topic-trivia", `(?i)(?:what|who|when|where|how|why)\s+(?:is|are|was|were|did)\s+(?:the|a)\b.{10,}`),
	rule("off-topic-spanish", `(?i)(?:cu[aá]nto|cu[aá]l|qu[eé]|c[oó]mo)\s+(?:es|son|fue|era)\b`),
	rule("model-reference", `(?i)eres\s+un\s+modelo`),
}

// FirstMatch returns the first rule in rules matching text.
func FirstMatch(rules []Rule, text string) (Rule, bool) {
	for _, r := range rules {
		if r.Matches(text) {
			return r, true
		}
	}
	return Rule{}, false
}
