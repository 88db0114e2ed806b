package fingerprint

import (
	"math"
	"math/bits"
	"strconv"
)

// HammingDistance computes the bit distance between two hex hashes.
// Hashes of different lengths are maximally distant. Non-hex inputs fall
// back to a per-character mismatch count.
func HammingDistance(hash1, hash2 string) int {
	if hash1 == "" || hash2 == "" {
		return max(len(hash1), len(hash2))
	}
	if len(hash1) != len(hash2) {
		return max(len(hash1), len(hash2))
	}

	int1, err1 := strconv.ParseUint(hash1, 16, 64)
	int2, err2 := strconv.ParseUint(hash2, 16, 64)
	if err1 == nil && err2 == nil {
		return bits.OnesCount64(int1 ^ int2)
	}
	if d, ok := hammingBigHex(hash1, hash2); ok {
		return d
	}

	mismatches := 0
	for i := 0; i < len(hash1); i++ {
		if hash1[i] != hash2[i] {
			mismatches++
		}
	}
	return mismatches
}

// hammingBigHex handles hex hashes longer than 16 nibbles by XOR-ing
// nibble by nibble.
func hammingBigHex(hash1, hash2 string) (int, bool) {
	total := 0
	for i := 0; i < len(hash1); i++ {
		n1, ok1 := hexNibble(hash1[i])
		n2, ok2 := hexNibble(hash2[i])
		if !ok1 || !ok2 {
			return 0, false
		}
		total += bits.OnesCount8(n1 ^ n2)
	}
	return total, true
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// VideoSimilarity normalizes the Hamming distance between two video
// hashes into a similarity in [0, 1]. Each hex character carries four
// bits, so the maximum distance is len(hash)*4.
func VideoSimilarity(hash1, hash2 string) float64 {
	if hash1 == "" || hash2 == "" {
		return 0
	}
	distance := HammingDistance(hash1, hash2)
	maxDistance := len(hash1) * 4
	if maxDistance == 0 {
		return 0
	}
	return math.Max(0, 1.0-float64(distance)/float64(maxDistance))
}

// AudioHashSimilarity compares audio digests. Equal digests score 1.0,
// digests of different lengths score 0, and otherwise the score is the
// fraction of matching characters.
func AudioHashSimilarity(hash1, hash2 string) float64 {
	if hash1 == "" || hash2 == "" {
		return 0
	}
	if hash1 == hash2 {
		return 1.0
	}
	if len(hash1) != len(hash2) {
		return 0
	}
	matches := 0
	for i := 0; i < len(hash1); i++ {
		if hash1[i] == hash2[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(hash1))
}

// Audio feature weights. MFCC shape dominates, chroma carries harmonic
// content, spectral statistics and tempo act as tie-breakers.
const (
	mfccWeight     = 0.4
	chromaWeight   = 0.3
	spectralWeight = 0.2
	tempoWeight    = 0.1
)

// AudioFeatureSimilarity scores two audio feature sets as the weighted
// combination of MFCC cosine, chroma cosine, spectral relative-difference,
// and tempo relative-difference similarities. Missing components
// contribute zero rather than being renormalized away.
func AudioFeatureSimilarity(a, b Fingerprint) float64 {
	mfcc := CosineSimilarity(a.MFCC, b.MFCC)
	chroma := CosineSimilarity(a.Chroma, b.Chroma)
	spectral := spectralSimilarity(a.Spectral, b.Spectral)
	tempo := relativeSimilarity(a.Tempo, b.Tempo)

	return mfcc*mfccWeight + chroma*chromaWeight + spectral*spectralWeight + tempo*tempoWeight
}

// AudioSimilarity compares two audio fingerprints, preferring the feature
// set when both sides carry one and falling back to digest comparison.
func AudioSimilarity(a, b Fingerprint) float64 {
	if a.HasFeatures() && b.HasFeatures() {
		return AudioFeatureSimilarity(a, b)
	}
	return AudioHashSimilarity(a.Hash, b.Hash)
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Vectors of different lengths or zero norm score 0.
func CosineSimilarity(vec1, vec2 []float64) float64 {
	if len(vec1) == 0 || len(vec1) != len(vec2) {
		return 0
	}
	var dot, norm1, norm2 float64
	for i := range vec1 {
		dot += vec1[i] * vec2[i]
		norm1 += vec1[i] * vec1[i]
		norm2 += vec2[i] * vec2[i]
	}
	if norm1 == 0 || norm2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

func spectralSimilarity(features1, features2 map[string]float64) float64 {
	if len(features1) == 0 || len(features2) == 0 {
		return 0
	}
	var sum float64
	count := 0
	for key, val1 := range features1 {
		val2, ok := features2[key]
		if !ok {
			continue
		}
		sum += relativeSimilarity(val1, val2)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// relativeSimilarity scores two scalars by their relative difference.
// Two zeros are identical; one zero against a non-zero is fully distinct.
func relativeSimilarity(val1, val2 float64) float64 {
	if val1 == 0 && val2 == 0 {
		return 1.0
	}
	if val1 == 0 || val2 == 0 {
		return 0
	}
	diff := math.Abs(val1-val2) / math.Max(val1, val2)
	return math.Max(0, 1.0-diff)
}
