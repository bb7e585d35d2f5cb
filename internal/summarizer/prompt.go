package summarizer

import (
	"fmt"
	"strings"
)

// SummarySentences is the exact number of sentences requested from the model.
const SummarySentences = 3

// NoBodyReply is the only answer the model may give when there is nothing to summarize.
const NoBodyReply = "No article body available."

const promptTemplate = `# Role
You are an assistant that reads news articles and condenses them to their essential facts.
# Rules
1. Write the summary in exactly %d complete sentences.
2. Keep proper nouns, figures and dates exactly as they appear in the article. Never add facts, opinions or speculation that are not in the article.
3. Keep every sentence short and plain so it is easy to follow when read aloud by text-to-speech.
4. Output only the summary. Do not add any preamble, acknowledgement, label such as "Summary:", markdown or commentary about the task.
5. If the material is too short to summarize, carries no meaningful information, or is only a URL, do not invent a summary; reply exactly with "%s"
# Task
Summarize the news article in the material below according to the rules above.
# Material
- Title: %s
- Body: %s`

// BuildPrompt renders the instruction block for one article. An empty body is replaced
// by the article URL.
func BuildPrompt(title, body, articleURL string) string {
	material := strings.TrimSpace(body)
	if material == "" {
		material = "URL: " + articleURL
	}
	return fmt.Sprintf(promptTemplate, SummarySentences, NoBodyReply, strings.TrimSpace(title), material)
}
