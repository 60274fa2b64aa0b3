package payment

import (
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/template"
)

// Recipient is one registered payee from the node's allow-list.
type Recipient struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
}

// matchesAllowList reports whether a classified receipt names at least one
// registered payee. A receipt naming somebody else entirely is downgraded
// to a failed attempt by the caller.
func matchesAllowList(verdict models.ReceiptVerdict, allowList []Recipient) bool {
	for _, recipient := range allowList {
		if matchesRecipient(verdict, recipient) {
			return true
		}
	}

	return false
}

// matchesRecipient fuzzy-matches on either field: substring in either
// direction on the normalized name, or a shared run of at least six digits
// on the identifier.
func matchesRecipient(verdict models.ReceiptVerdict, recipient Recipient) bool {
	if verdict.RecipientName != "" && recipient.Name != "" {
		extracted := template.Normalize(verdict.RecipientName)
		registered := template.Normalize(recipient.Name)

		if template.NormalizedContains(extracted, registered) || template.NormalizedContains(registered, extracted) {
			return true
		}
	}

	if verdict.RecipientID != "" && recipient.Identifier != "" {
		if sharedDigitRun(verdict.RecipientID, recipient.Identifier) >= minDigitRun {
			return true
		}
	}

	return false
}

const minDigitRun = 6

// sharedDigitRun returns the length of the longest digit sequence common
// to both strings, ignoring every non-digit character. Formatting noise
// like dots and dashes in document numbers must not defeat the match.
func sharedDigitRun(a, b string) int {
	da := digits(a)
	db := digits(b)

	if len(da) == 0 || len(db) == 0 {
		return 0
	}

	// Longest common substring over the digit strings.
	prev := make([]int, len(db)+1)
	curr := make([]int, len(db)+1)
	best := 0

	for i := 1; i <= len(da); i++ {
		for j := 1; j <= len(db); j++ {
			if da[i-1] == db[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}

		prev, curr = curr, prev
	}

	return best
}

func digits(s string) string {
	out := make([]byte, 0, len(s))

	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}

	return string(out)
}
