package fingerprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes the two fingerprint modalities.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Method records how a fingerprint was produced.
const (
	MethodExtracted = "extracted"
	MethodFallback  = "fallback"
)

// Fingerprint is the stored form of a perceptual fingerprint. Video
// fingerprints carry only Hash; audio fingerprints may also carry the
// feature set when full extraction succeeded.
type Fingerprint struct {
	Hash     string             `json:"hash"`
	Method   string             `json:"method,omitempty"`
	MFCC     []float64          `json:"mfcc,omitempty"`
	Chroma   []float64          `json:"chroma,omitempty"`
	Spectral map[string]float64 `json:"spectral,omitempty"`
	Tempo    float64            `json:"tempo,omitempty"`
}

// HasFeatures reports whether the audio feature set is populated.
func (f Fingerprint) HasFeatures() bool {
	return len(f.MFCC) > 0 || len(f.Chroma) > 0 || len(f.Spectral) > 0 || f.Tempo != 0
}

// IsZero reports whether the fingerprint carries no signal at all.
func (f Fingerprint) IsZero() bool {
	return f.Hash == "" && !f.HasFeatures()
}

// Encode serializes a fingerprint to the JSON blob stored on evidence and
// reference rows.
func Encode(f Fingerprint) (string, error) {
	if f.IsZero() {
		return "", errors.New("fingerprint is empty")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode fingerprint: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored fingerprint blob. A bare hash string (legacy
// references loaded from external catalogs) is accepted as well.
func Decode(blob string) (Fingerprint, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return Fingerprint{}, errors.New("fingerprint blob is empty")
	}
	if !strings.HasPrefix(blob, "{") {
		return Fingerprint{Hash: blob}, nil
	}
	var f Fingerprint
	if err := json.Unmarshal([]byte(blob), &f); err != nil {
		return Fingerprint{}, fmt.Errorf("decode fingerprint: %w", err)
	}
	if f.IsZero() {
		return Fingerprint{}, errors.New("fingerprint blob carries no hash or features")
	}
	return f, nil
}
