// Package models resolves short model names against a table of known models.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelNotFound is returned when no model in the table matches a prefix.
var ErrModelNotFound = errors.New("model not found")

// Default is the built-in model table. Its first entry is the default model.
var Default = []string{
	"qwen2.5-coder:32b-instruct-q4_K_M-17k",
	"devstral:24b-small-2505-q4_K_M-61k",
	"qwen3:14b-q4_K_M-95k",
	"qwen3:30b-a3b-q4_K_M-46k",
	"qwen3:32b-q4_K_M-12k",
	"deepseek-r1:32b-qwen-distill-q4_K_M-17k",
	"qwq:32b-q4_K_M-17k",
	"granite3.3:8b-128k",
	"granite3.1-dense:8b-instruct-q4_K_M-128k",

	// Need 48 GB of VRAM.
	"qwen2.5-coder:32b-instruct-q4_K_M-110k",
	"deepseek-r1:32b-qwen-distill-q4_K_M-110k",
}

// Resolve returns the first model in table that starts with prefix.
// An empty prefix resolves to the first model.
func Resolve(table []string, prefix string) (string, error) {
	for _, model := range table {
		if strings.HasPrefix(model, prefix) {
			return model, nil
		}
	}
	return "", fmt.Errorf("%w: no model starts with %q, available models are: %s",
		ErrModelNotFound, prefix, strings.Join(table, ", "))
}
