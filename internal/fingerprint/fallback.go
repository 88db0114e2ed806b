package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Fallback derives deterministic fingerprints from the stream URL when
// real capture is impossible. The seed is bucketed by hour so that
// repeated attempts within the hour agree with each other, and the two
// modalities take disjoint halves of the digest. The hashes stay plain
// hex so Hamming comparison against extracted hashes keeps working.
func Fallback(url string, now time.Time) (video, audio Fingerprint) {
	bucket := now.UTC().Unix() / 3600
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", url, bucket)))
	seed := hex.EncodeToString(sum[:])

	video = Fingerprint{Hash: seed[:16], Method: MethodFallback}
	audio = Fingerprint{Hash: seed[16:32], Method: MethodFallback}
	return video, audio
}
