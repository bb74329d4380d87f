package intake

import "strings"

// Confirmation vocabulary, English and Spanish. The same lists are embedded
// into the engine instructions; the orchestrator re-checks them to enforce
// the confirmation gate regardless of what the engine claims.
var affirmativePhrases = []string{
	"yes", "yes please", "yeah", "yep", "sure", "ok", "okay",
	"save", "save it", "confirm", "confirmed", "correct", "that's right",
	"go ahead", "do it", "sounds good",
	"si", "sí", "claro", "dale", "correcto", "confirmo", "confirmar",
	"guardar", "guardalo", "guárdalo", "adelante",
}

var negativePhrases = []string{
	"no", "nope", "not yet", "cancel", "wrong", "that's wrong", "change",
	"change it", "no thanks", "stop",
	"cancelar", "incorrecto", "cambiar", "espera", "todavia no", "todavía no",
}

// IsAffirmative reports whether the utterance counts as explicit
// confirmation.
func IsAffirmative(text string) bool {
	return matchesVocabulary(text, affirmativePhrases)
}

// IsNegative reports whether the utterance rejects the pending confirmation.
func IsNegative(text string) bool {
	return matchesVocabulary(text, negativePhrases)
}

func matchesVocabulary(text string, phrases []string) bool {
	normalized := normalizeUtterance(text)
	if normalized == "" {
		return false
	}
	for _, phrase := range phrases {
		if normalized == phrase {
			return true
		}
		// "yes, save it" and "ok great" still count.
		if strings.HasPrefix(normalized, phrase+" ") {
			return true
		}
	}
	return false
}

func normalizeUtterance(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	var b strings.Builder
	for _, r := range lowered {
		switch r {
		case '.', ',', '!', '?', '¡', '¿':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
