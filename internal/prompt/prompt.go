// Package prompt assembles the instruction block sent to the language
// model. The structural contract matters more than the wording: when
// context is present the model must be told to emit [citation-key]
// markers, the tagged context must be embedded verbatim, Markdown must be
// requested for code and lists, and uncertainty must be preferred over
// fabrication. The response linker depends on the markers actually
// appearing in replies.
package prompt

import "fmt"

const minimalTemplate = `Format your response using Markdown syntax where appropriate.

%s`

const contextTemplate = `Format your response using Markdown syntax where appropriate.

When you use information from the provided URLs, cite your sources using [citation-key] format. I'll provide content with citation keys in square brackets.

Use all the following context to answer the user's questions:
%s

Important:
1. ALWAYS cite your sources using [citation-key] when using information from the provided URLs
2. Use Markdown for formatting, especially for code blocks and lists
3. If you're not sure about something, say so rather than making assumptions

User message: %s`

// Build composes the model prompt. No truncation or token budgeting is
// performed; unbounded accumulated context is a known scaling limitation.
func Build(userMessage, fullContext string) string {
	if fullContext == "" {
		return fmt.Sprintf(minimalTemplate, userMessage)
	}
	return fmt.Sprintf(contextTemplate, fullContext, userMessage)
}
