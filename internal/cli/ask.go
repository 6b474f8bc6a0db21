package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivanshkc/koda/internal/logger"
	"github.com/shivanshkc/koda/pkg/consumer"
	"github.com/shivanshkc/koda/pkg/models"
	"github.com/shivanshkc/koda/pkg/phase"
	"github.com/shivanshkc/koda/pkg/prompt"
	"github.com/shivanshkc/koda/pkg/render"
	"github.com/shivanshkc/koda/pkg/think"
)

var (
	askNoBrowser      bool
	askHideThinking   bool
	askReplayThinking bool
	askSplitMarkers   bool
	askStats          bool

	// viewerGrace is how long the HTML document outlives the viewer command.
	viewerGrace = render.DefaultGrace
)

// askCmd represents the `ask` command: one question, optionally about some files,
// answered by the coding assistant.
//
// The answer is streamed to stdout and then, unless --no-browser is set, rendered
// as an HTML document with the thinking segment folded into a collapsible widget.
var askCmd = &cobra.Command{
	Use:   "ask PROMPT [FILE...]",
	Short: "Ask the coding assistant a question.",
	Long: `Ask the coding assistant a question, optionally about the given files.
Each file is sent as context before the question. The answer is streamed to stdout
and then shown as an HTML document in the viewer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if message := validateAskFlags(settings); message != "" {
			return errors.New(message)
		}

		model, err := models.Resolve(settings.Models, settings.Model)
		if err != nil {
			return err
		}

		question, fileNames := args[0], args[1:]
		files, err := prompt.ReadContextFiles(fileNames)
		if err != nil {
			return err
		}

		mode := consumer.PassThrough
		if askHideThinking {
			mode = consumer.Suppress
		}

		scannerOpts := []think.Option{think.WithMarkers(settings.Markers.Open, settings.Markers.Close)}
		if askSplitMarkers {
			scannerOpts = append(scannerOpts, think.WithSplitDetection())
		}

		result, err := runCompletion(cmd, completionRequest{
			model:    model,
			messages: prompt.AskMessages(prompt.DefaultAssistant.SystemPrompt(), files, question),
			mode:     mode,
			scanner:  think.NewScanner(scannerOpts...),
			banner:   true,
		})
		if err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		if err := phase.WriteReport(stderr, phase.StylePhased, result.Usage, result.Timestamps); err != nil {
			return err
		}
		if askStats {
			if err := phase.WriteGaps(stderr, result.Gaps); err != nil {
				return err
			}
		}

		if askReplayThinking {
			err := render.WriteThinking(stderr, result.Thinking, render.TerminalOptions{
				OpenMarker:  settings.Markers.Open,
				CloseMarker: settings.Markers.Close,
			})
			if err != nil {
				return err
			}
		}

		if askNoBrowser {
			return nil
		}

		doc := render.Document{Model: model, Prompt: question, Context: fileNames, Response: result.Transcript}
		return showDocument(cmd.Context(), doc, result.Timestamps)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVarP(&askNoBrowser, "no-browser", "n", false,
		"Do not render the answer as a document or open the viewer.")
	askCmd.Flags().BoolVar(&askHideThinking, "hide-thinking", false,
		"Withhold the thinking segment from the live output. It still appears in the document.")
	askCmd.Flags().BoolVar(&askReplayThinking, "replay-thinking", false,
		"Print the withheld thinking segment to stderr after the answer. Requires --hide-thinking.")
	askCmd.Flags().BoolVar(&askSplitMarkers, "split-markers", false,
		"Detect thinking markers split across fragments.")
	askCmd.Flags().BoolVar(&askStats, "stats", false,
		"Print statistics of the gaps between fragments.")

	askCmd.Flags().String("converter", "",
		"Markdown to HTML converter: auto, pandoc or builtin (default: auto).")
	askCmd.Flags().String("viewer", "",
		"Command that opens the HTML document (default: \""+render.DefaultViewer+"\").")
	askCmd.Flags().String("stylesheet", "",
		"CSS file embedded into the document (default: built-in stylesheet).")

	commandFlagKeys[askCmd.Name()] = map[string]string{
		"converter":  "converter",
		"viewer":     "viewer",
		"stylesheet": "stylesheet",
	}
}

// showDocument renders the document and opens it in the viewer.
// A converter failure is reported and swallowed: the answer was already delivered.
func showDocument(ctx context.Context, doc render.Document, ts phase.Timestamps) error {
	converter, err := render.NewConverter(settings.Converter, render.ConverterOptions{Stylesheet: settings.Stylesheet})
	if err != nil {
		return err
	}

	var thinking *time.Duration
	if d, ok := ts.ThinkingTime(); ok {
		thinking = &d
	}

	publisher := &render.Publisher{
		Converter: converter,
		Viewer:    render.NewViewer(settings.Viewer, viewerGrace),
	}

	err = publisher.Publish(ctx, doc, thinking)
	if errors.Is(err, render.ErrConverterFailed) {
		logger.Warn("the document could not be rendered", "converter", converter.Name(), "err", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to show document: %w", err)
	}
	return nil
}
