package services

import "strings"

// IsAffirmative reports whether an operator answer confirms the prompt.
// Only a single "y" or "Y" counts; anything else, including no answer, is a no.
func IsAffirmative(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}
