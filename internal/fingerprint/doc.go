// Package fingerprint defines the perceptual fingerprints recorded on
// evidence and catalog references, and the similarity measures over them.
// Video fingerprints are hex perceptual hashes compared by Hamming
// distance; audio fingerprints carry an MFCC/chroma/spectral feature set
// with a hash fallback for references that only store a digest.
package fingerprint
