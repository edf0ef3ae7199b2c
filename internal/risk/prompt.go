package risk

import "strings"

const promptTextPlaceholder = "{text}"

// RiskPrompt is the instruction template sent to the model. The complaint text
// replaces {text} verbatim.
const RiskPrompt = `You are a civic risk intensity analyzer.
Analyze the following complaint text and classify its risk intensity as "low", "medium", or "high".

Criteria:
- "high": Immediate danger to life or property, severe traffic disruption, massive utility failure (e.g., major water main burst, live wire down, bridge collapse, building fire).
- "medium": Significant inconvenience or potential for damage if left unaddressed soon, health hazards (e.g., large potholes on main roads, non-functional street lights in dangerous areas, overflowing sewage, garbage not cleared for days).
- "low": Minor issues, cosmetic damage, or slight inconvenience (e.g., small potholes on side streets, graffiti, minor litter, requested tree pruning).

Text: {text}

Output ONLY valid JSON correctly matching the following schema:
{
    "intensity": "low" | "medium" | "high",
    "confidence": float,
    "reason": "string (brief explanation for the intensity)"
}
Confidence must be a float between 0 and 1.
No explanation or extra text outside the JSON.`

// RenderPrompt embeds text into RiskPrompt. Only the first placeholder is
// replaced so complaint text that itself contains "{text}" is left intact.
func RenderPrompt(text string) string {
	return strings.Replace(RiskPrompt, promptTextPlaceholder, text, 1)
}
