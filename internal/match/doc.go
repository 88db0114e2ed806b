// Package match compares captured fingerprints against the reference
// catalog and turns the results into an enforcement decision. Scoring has
// two tiers: per-reference fingerprint confidence (match/likely/none) and
// a combined risk score that folds in lexical content heuristics and an
// optional LLM classification.
package match
