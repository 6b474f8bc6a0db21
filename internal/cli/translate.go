package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivanshkc/koda/pkg/consumer"
	"github.com/shivanshkc/koda/pkg/models"
	"github.com/shivanshkc/koda/pkg/phase"
	"github.com/shivanshkc/koda/pkg/prompt"
)

// translateCmd represents the `translate` command: stdin in, translation out.
var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text from stdin.",
	Long:  "Translates the text read from stdin into the target language and streams the translation to stdout.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if message := validateTranslateFlags(settings); message != "" {
			return errors.New(message)
		}

		model, err := models.Resolve(settings.Models, settings.Model)
		if err != nil {
			return err
		}

		input, err := readAllContext(cmd.Context(), cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		result, err := runCompletion(cmd, completionRequest{
			model:    model,
			messages: prompt.TranslateMessages(settings.Language, input),
			mode:     consumer.PassThrough,
		})
		if err != nil {
			return err
		}

		return phase.WriteReport(cmd.ErrOrStderr(), phase.StyleTotal, result.Usage, result.Timestamps)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringP("language", "l", "",
		"Language to translate the text into (default: English).")

	commandFlagKeys[translateCmd.Name()] = map[string]string{"language": "language"}
}
