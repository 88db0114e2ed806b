package llm

// RiskClassificationPrompt instructs the model to score how likely a
// reported stream is an unauthorized rebroadcast of protected live sports.
const RiskClassificationPrompt = `You assess reported live-stream candidates for an anti-piracy system.
Given a candidate's platform, URL, and title, estimate how likely it is an
unauthorized rebroadcast of protected live sports content.

Respond with JSON only, in exactly this shape:
{"risk_score": <number between 0 and 1>, "label": "<piracy|suspicious|benign>", "reason": "<one short sentence>"}

Scoring guidance:
- 0.8-1.0: explicit free restreams of live sports (e.g. "FREE LIVE Cricket Final HD").
- 0.4-0.8: sports content with piracy markers (free/download/stream keywords, mirror URLs).
- 0.0-0.4: ordinary uploads with no piracy markers.
Do not include any text outside the JSON object.`
