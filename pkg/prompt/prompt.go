// Package prompt builds the chat messages sent for each command.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/shivanshkc/koda/pkg/api"
)

// Assistant describes the persona of the coding assistant.
type Assistant struct {
	Name      string
	Languages []string
	Skills    []string
}

// DefaultAssistant is the persona used by the ask command.
var DefaultAssistant = Assistant{
	Name:      "Koda",
	Languages: []string{"Python", "Java", "Rust", "C", "Verilog"},
	Skills:    []string{"software reverse engineering", "hardware reverse engineering"},
}

// SystemPrompt returns the system message of the persona, one instruction per line.
func (a Assistant) SystemPrompt() string {
	lines := []string{fmt.Sprintf("You are %s, an AI coding assistant.", a.Name)}
	if len(a.Languages) > 0 {
		lines = append(lines, fmt.Sprintf("You are an expert in %s.", JoinWithAnd(a.Languages)))
	}
	if len(a.Skills) > 0 {
		lines = append(lines, fmt.Sprintf("You are also an expert at %s.", JoinWithAnd(a.Skills)))
	}

	lines = append(lines,
		`Do NOT prefix your responses with any words like "Certainly!", "Sure!", or similar phrases.`,
		"If your answer contains fenced code blocks in Markdown, include the relevant full file path "+
			"in the code block tag using this structure: ```$LANGUAGE:$FILEPATH```",
		`For example, for a Python file "program.py", the structure should be: `+"```python:program.py```",
		"For executable terminal commands, enclose each command in an individual ```bash``` "+
			"language fenced code block without any comments or newlines inside.",
	)
	return strings.Join(lines, "\n")
}

// JoinWithAnd joins items as an English list: "a", "a and b", "a, b, and c".
func JoinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// ContextFile is a file sent along with a question.
type ContextFile struct {
	Name    string
	Content string
}

// ReadContextFiles reads the named files in order.
func ReadContextFiles(names []string) ([]ContextFile, error) {
	files := make([]ContextFile, 0, len(names))
	for _, name := range names {
		content, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read context file: %w", err)
		}
		files = append(files, ContextFile{Name: name, Content: string(content)})
	}
	return files, nil
}

// AskMessages builds the conversation for a question about the given files.
//
// Every file is sent as a user message acknowledged by the assistant, so the
// question itself comes last and can refer to the files by name.
func AskMessages(system string, files []ContextFile, question string) []api.ChatMessage {
	messages := []api.ChatMessage{{Role: api.RoleSystem, Content: system}}

	for _, file := range files {
		messages = append(messages,
			api.ChatMessage{
				Role:    api.RoleUser,
				Content: fmt.Sprintf("Content for \"%s\":\n\n```\n%s\n```\n", file.Name, strings.TrimSpace(file.Content)),
			},
			api.ChatMessage{Role: api.RoleAssistant, Content: "Ok."},
		)
	}

	parts := []string{"Answer positively without apologizing."}
	if len(files) > 0 {
		parts = append(parts, "You have access to the provided codebase context.")
	}
	parts = append(parts, "Question:")
	for _, file := range files {
		parts = append(parts, "`"+file.Name+"`")
	}
	parts = append(parts, question)

	return append(messages, api.ChatMessage{Role: api.RoleUser, Content: strings.Join(parts, " ")})
}

// TranslateMessages builds the conversation that translates text into language.
func TranslateMessages(language, text string) []api.ChatMessage {
	return []api.ChatMessage{
		{
			Role:    api.RoleSystem,
			Content: fmt.Sprintf("Translate the provided text to %s. YOU MUST ONLY OUTPUT THE TRANSLATED TEXT!", language),
		},
		{Role: api.RoleUser, Content: strings.TrimSpace(text)},
	}
}
