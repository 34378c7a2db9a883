package answers

import "fmt"

// GenerationRequest is the uniform input every provider adapter consumes:
// a rendered system/user prompt pair plus the number of answers demanded.
type GenerationRequest struct {
	System string
	User   string
	Count  int
}

// maxOutputTokens bounds every provider call. Pool answers are one or two
// sentences, so 1024 tokens is generous even for large batches.
const maxOutputTokens = 1024

// BuildRequest renders the prompt pair for a batch of count answers. The
// user instruction demands a bare JSON array so ParseResponse almost always
// takes the direct-parse path.
func BuildRequest(systemPrompt string, count int) GenerationRequest {
	user := fmt.Sprintf("Generiere genau %d kurze Tipps zu diesem Thema.\n"+
		"Antworte NUR mit einem JSON-Array von Strings, ohne Erklärungen.\n"+
		"Verwende KEIN Markdown, KEINE Sterne, KEINE Unterstriche. Emojis sind erlaubt und erwünscht.\n"+
		"Beginne jeden Tipp NICHT mit einer Nummer oder dem Wort 'Tipp'.\n"+
		`Beispiel: ["Nutze täglich 10 Minuten für KI-Experimente.", "Teile deine Erkenntnisse im Team."]`, count)
	return GenerationRequest{
		System: systemPrompt,
		User:   user,
		Count:  count,
	}
}
