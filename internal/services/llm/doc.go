// Package llm wraps the OpenRouter chat completion API used to classify
// candidate streams. The classifier is optional: when no API key is
// configured the decision engine runs on lexical heuristics alone, so
// every caller must tolerate a nil client.
package llm
