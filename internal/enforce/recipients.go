package enforce

import "strings"

// platformRecipients maps platform tags to their published copyright and
// abuse contacts.
var platformRecipients = map[string][]string{
	"youtube":   {"copyright@youtube.com", "abuse@youtube.com"},
	"facebook":  {"ip@fb.com", "abuse@facebook.com"},
	"twitter":   {"copyright@twitter.com", "abuse@twitter.com"},
	"instagram": {"copyright@instagram.com", "abuse@instagram.com"},
	"telegram":  {"dmca@telegram.org", "abuse@telegram.org"},
}

// genericRecipient is used for platforms without a known abuse contact so a
// notice is always rendered and recorded for operator follow-up.
const genericRecipient = "abuse@example.com"

// RecipientsFor returns the notice recipients for a platform.
func RecipientsFor(platform string) []string {
	if recipients, ok := platformRecipients[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return append([]string(nil), recipients...)
	}
	return []string{genericRecipient}
}
