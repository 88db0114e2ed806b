package enforce

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"streamwatch/internal/config"
	"streamwatch/internal/fingerprint"
	"streamwatch/internal/store"
)

var titleCaser = cases.Title(language.English)

// NoticeInput carries everything the notice template needs. Evidence and
// BestMatch may be nil; the corresponding sections are omitted.
type NoticeInput struct {
	Detection *store.Detection
	Evidence  *store.Evidence
	BestMatch *store.Match
	Now       time.Time
}

// RenderNotice produces the plain-text DMCA notice body for a detection.
func RenderNotice(cfg config.Enforcement, in NoticeInput) string {
	detection := in.Detection
	platform := titleCaser.String(strings.TrimSpace(detection.Platform))
	title := strings.TrimSpace(detection.Title)
	if title == "" {
		title = "Unknown Title"
	}
	reported := in.Now.UTC().Format("2006-01-02 15:04:05 UTC")

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: DMCA Takedown Notice - Copyright Infringement\n\n")
	fmt.Fprintf(&b, "Dear %s Copyright Team,\n\n", platform)
	fmt.Fprintf(&b, "I am writing to report a copyright infringement on your platform. The following content appears to be unauthorized use of copyrighted material owned by %s.\n\n", cfg.Organization)
	fmt.Fprintf(&b, "INFRINGING CONTENT:\n")
	fmt.Fprintf(&b, "- URL: %s\n", detection.URL)
	fmt.Fprintf(&b, "- Title: %s\n", title)
	fmt.Fprintf(&b, "- Platform: %s\n", platform)
	fmt.Fprintf(&b, "- Reported: %s\n", reported)

	if match := in.BestMatch; match != nil {
		fmt.Fprintf(&b, "\nMATCHING EVIDENCE:\n")
		fmt.Fprintf(&b, "- Reference ID: %d\n", match.ReferenceID)
		fmt.Fprintf(&b, "- Video Similarity: %.3f\n", match.VideoScore)
		fmt.Fprintf(&b, "- Audio Similarity: %.3f\n", match.AudioScore)
		fmt.Fprintf(&b, "- Overall Confidence: %.3f\n", match.Confidence)
	}

	if evidence := in.Evidence; evidence != nil {
		fmt.Fprintf(&b, "\nEVIDENCE DETAILS:\n")
		fmt.Fprintf(&b, "- Duration: %.1f seconds\n", evidence.DurationSeconds)
		fmt.Fprintf(&b, "- Video Fingerprint: %s\n", hashPreview(evidence.VideoFingerprint))
		fmt.Fprintf(&b, "- Audio Fingerprint: %s\n", hashPreview(evidence.AudioFingerprint))
	}

	fmt.Fprintf(&b, "\nCOPYRIGHT CLAIM:\n")
	fmt.Fprintf(&b, "I have a good faith belief that the use of the copyrighted material described above is not authorized by the copyright owner, its agent, or the law.\n\n")
	fmt.Fprintf(&b, "I swear, under penalty of perjury, that the information in this notification is accurate and that I am the copyright owner or am authorized to act on behalf of the owner of an exclusive right that is allegedly infringed.\n\n")
	fmt.Fprintf(&b, "I request that you remove or disable access to the infringing material as soon as possible.\n\n")
	fmt.Fprintf(&b, "CONTACT INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", cfg.SenderName)
	fmt.Fprintf(&b, "- Email: %s\n", cfg.SenderEmail)
	fmt.Fprintf(&b, "- Company: %s\n\n", cfg.Organization)
	fmt.Fprintf(&b, "Please confirm receipt of this notice and the actions taken.\n\n")
	fmt.Fprintf(&b, "Thank you for your prompt attention to this matter.\n\n")
	fmt.Fprintf(&b, "Sincerely,\n%s\n\n", cfg.SenderName)
	fmt.Fprintf(&b, "---\n")
	fmt.Fprintf(&b, "This is an automated DMCA notice generated by the %s anti-piracy system.\n", cfg.Organization)
	fmt.Fprintf(&b, "For questions about this notice, please contact: %s", cfg.SenderEmail)

	return b.String()
}

// hashPreview extracts the leading portion of a fingerprint hash so the
// notice shows provenance without leaking full fingerprints.
func hashPreview(blob string) string {
	if blob == "" {
		return "N/A"
	}
	fp, err := fingerprint.Decode(blob)
	if err != nil || fp.Hash == "" {
		return "N/A"
	}
	if len(fp.Hash) > 16 {
		return fp.Hash[:16] + "..."
	}
	return fp.Hash
}
