// Package cli contains all the command-line interface logic for the application,
// powered by the cobra library. It defines the root command, subcommands,
// and their respective flags.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/shivanshkc/koda/internal/config"
	"github.com/shivanshkc/koda/internal/logger"
	"github.com/shivanshkc/koda/pkg/api"
)

var (
	// Flag values of the root command that are not configuration keys.
	// Configuration keys (base URL, model, etc.) are read through settings instead.
	rootConfigFile string
	rootEnvFile    string
	rootLogLevel   string
	rootLogFile    string

	// settings holds the configuration resolved before any subcommand runs.
	settings *config.Config
)

// rootFlagKeys maps the persistent flags that override configuration keys to those keys.
var rootFlagKeys = map[string]string{
	"base-url":  "base_url",
	"api-key":   "api_key",
	"model":     "model",
	"transport": "transport",
}

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point and parent for all other commands.
var rootCmd = &cobra.Command{
	Use:   "koda",
	Short: "Stream answers from OpenAI compatible chat-completion APIs.",
	Long: `Stream answers from OpenAI compatible chat-completion APIs.
Answers are printed as they arrive, followed by token usage and timing metrics.
The thinking segment of reasoning models can be hidden and timed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Configure(rootLogLevel, rootLogFile); err != nil {
			return err
		}
		configureColors()

		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		settings = cfg
		logger.Debug("configuration loaded", "base_url", cfg.BaseURL, "model", cfg.Model, "transport", cfg.Transport)
		return nil
	},
}

// Execute is the primary entry point for the CLI application, called by main.go.
//
// It sets up a single, root cancellable context and wires it up to respond
// to OS interruption signals (like Ctrl+C or SIGTERM). This context is then passed down
// to all cobra commands, so an interrupt stops the stream and removes scratch files.
func Execute() error {
	// Create a root context that can be canceled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // Ensure cancel is called on exit to clean up context resources.
	defer func() { _ = logger.Close() }()

	// Set up a channel to listen for specific OS signals.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	// Launch a goroutine to cancel the context upon receiving a signal.
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Execute the root command with the cancellable context.
	return rootCmd.ExecuteContext(ctx)
}

// init configures the application's flags.
//
// Flags shared by every subcommand live on the root command as persistent flags.
// Their defaults are empty: defaults belong to the configuration layer, and an
// unset flag must not shadow the config file or the environment.
func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringP("base-url", "b", "",
		"Base URL of the API, including the version prefix (env: KODA_BASE_URL, OPENAI_BASE_URL).")
	flags.StringP("api-key", "k", "",
		"API key (env: KODA_API_KEY, OPENAI_API_KEY).")
	flags.StringP("model", "m", "",
		"Prefix of a model in the model table. The first model is the default.")
	flags.String("transport", "",
		"Client used to reach the API: http or sdk.")

	flags.StringVar(&rootConfigFile, "config", "",
		"Path of the config file (default: config.toml in the user config directory).")
	flags.StringVar(&rootEnvFile, "env-file", "",
		"Path of a dotenv file to load (default: .env when present).")
	flags.StringVar(&rootLogLevel, "log-level", "",
		"Log level: debug, info, warn or error (env: KODA_LOG_LEVEL).")
	flags.StringVar(&rootLogFile, "log-file", "",
		"Append logs to this file instead of stderr (env: KODA_LOG_FILE).")
}

// loadSettings resolves the configuration for cmd: env file, config file, environment and flags.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnvFile(rootEnvFile); err != nil {
		return nil, err
	}

	v, err := config.InitViper(config.Options{ConfigFile: rootConfigFile})
	if err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd, rootFlagKeys); err != nil {
		return nil, err
	}
	if keys, ok := commandFlagKeys[cmd.Name()]; ok {
		if err := bindFlags(v, cmd, keys); err != nil {
			return nil, err
		}
	}

	return config.Load(v)
}

// bindFlags makes viper read each flag of cmd in keys as an override of its configuration key.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// commandFlagKeys lists, per subcommand, the local flags that override configuration keys.
// Subcommands register themselves in their init functions.
var commandFlagKeys = map[string]map[string]string{}

// configureColors turns colors off when stderr is not a terminal or NO_COLOR is set.
func configureColors() {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor || !term.IsTerminal(int(os.Stderr.Fd())) {
		text.DisableColors()
		return
	}
	text.EnableColors()
}

// newStreamer returns the API client selected by the transport setting.
// It is a variable so tests can substitute the client.
var newStreamer = func(cfg *config.Config) api.Streamer {
	if cfg.Transport == config.TransportSDK {
		return api.NewSDKClient(cfg.BaseURL, cfg.APIKey, nil)
	}
	return api.NewClient(cfg.BaseURL, cfg.APIKey)
}
