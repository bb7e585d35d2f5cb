package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("  Rates rise again ", "The central bank raised rates by 0.25%p on 3 May.", "https://news.example/1")

	assert.Contains(t, prompt, "exactly 3 complete sentences")
	assert.Contains(t, prompt, "Never add facts")
	assert.Contains(t, prompt, "Do not add any preamble")
	assert.Contains(t, prompt, `reply exactly with "`+NoBodyReply+`"`)
	assert.Contains(t, prompt, "- Title: Rates rise again\n")
	assert.True(t, strings.HasSuffix(prompt, "- Body: The central bank raised rates by 0.25%p on 3 May."))
	assert.NotContains(t, prompt, "https://news.example/1")
}

func TestBuildPromptWithoutBody(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("Title", " \n ", "https://news.example/2")
	assert.True(t, strings.HasSuffix(prompt, "- Body: URL: https://news.example/2"))
}
