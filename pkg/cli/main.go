// Package cli builds the notifyctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nimburion/notify/pkg/config"
	"github.com/nimburion/notify/pkg/configschema"
	"github.com/nimburion/notify/pkg/notify"
	"github.com/nimburion/notify/pkg/notify/dispatch"
	"github.com/nimburion/notify/pkg/notify/schema"
	"github.com/nimburion/notify/pkg/observability/logger"
	"github.com/nimburion/notify/pkg/observability/metrics"
)

const secretMask = "********"

// CommandOptions customizes the command tree.
type CommandOptions struct {
	Name        string
	Description string
	ConfigPath  string
	EnvPrefix   string

	// Optional: override backend construction for "send" (useful for tests).
	NotifierFactory dispatch.Factory
}

// NewCommand creates the notifyctl CLI with validate, show, schema, send and
// version subcommands.
func NewCommand(opts CommandOptions) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "notifyctl"
	}
	if opts.Description == "" {
		opts.Description = "Validate notification service configuration and dispatch events"
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = config.DefaultEnvPrefix
	}

	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgPath string
	defaults := config.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgPath, "config-file", "c", opts.ConfigPath, "config file path")
	flags.String("notify-file", "", "services document (defaults to the config file)")
	flags.String("log-level", defaults.Observability.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.Observability.LogFormat, "log format (json, text)")
	flags.String("log-file", "", "also write logs to this rotating file")
	flags.Duration("timeout", defaults.Notify.Timeout, "per-backend request timeout")

	loadConfig := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.NewViperLoader(cfgPath, opts.EnvPrefix).WithFlags(cmd.Flags()).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	loadDocument := func(cmd *cobra.Command) (*config.Config, *notify.Document, string, error) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, nil, "", err
		}
		path := cfg.DocumentPath(cfgPath)
		if path == "" {
			return nil, nil, "", errors.New("no services document: set --notify-file or --config-file")
		}
		doc, err := notify.LoadFile(path)
		if err != nil {
			return nil, nil, path, err
		}
		return cfg, doc, path, nil
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the services document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, path, err := loadDocument(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d services)\n", path, doc.Len())
			return nil
		},
	})

	var (
		showFormat  string
		showSecrets bool
	)
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the normalized services document with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, _, err := loadDocument(cmd)
			if err != nil {
				return err
			}
			formatted, err := formatDocument(doc, showFormat, showSecrets)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(formatted)
			return err
		},
	}
	showCmd.Flags().StringVarP(&showFormat, "output", "o", "yaml", "output format (yaml, json)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values such as the chanify token in clear text")
	rootCmd.AddCommand(showCmd)

	var schemaOutput string
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the services document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := configschema.BuildSchema(schema.Default)
			if err != nil {
				return err
			}
			data, err := configschema.Marshal(s)
			if err != nil {
				return err
			}
			if schemaOutput == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(schemaOutput, data, 0o644); err != nil {
				return fmt.Errorf("write schema: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ schema written to %s\n", schemaOutput)
			return nil
		},
	}
	schemaCmd.Flags().StringVar(&schemaOutput, "output-file", "", "write the schema to a file instead of stdout")
	rootCmd.AddCommand(schemaCmd)

	var (
		extras          map[string]string
		metricsTextfile string
	)
	sendCmd := &cobra.Command{
		Use:   "send <event-type> [text...]",
		Short: "Dispatch an event to every subscribed backend",
		Long: "Dispatch an event to every subscribed backend.\n\nEvent types: " +
			strings.Join(eventTypeNames(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType, ok := schema.ParseEventType(args[0])
			if !ok {
				return fmt.Errorf("unknown event type %q (supported: %s)", args[0], strings.Join(eventTypeNames(), ", "))
			}
			cfg, doc, _, err := loadDocument(cmd)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()
			scoped := log.With("service_name", cfg.Service.Name, "environment", cfg.Service.Environment)

			registry := metrics.NewRegistry()
			dispatchOpts := []dispatch.Option{
				dispatch.WithLogger(scoped),
				dispatch.WithMetrics(registry.Dispatch()),
				dispatch.WithTimeout(cfg.Notify.Timeout),
			}
			if opts.NotifierFactory != nil {
				dispatchOpts = append(dispatchOpts, dispatch.WithFactory(opts.NotifierFactory))
			}
			dispatcher, err := dispatch.New(doc, dispatchOpts...)
			if err != nil {
				return fmt.Errorf("create dispatcher: %w", err)
			}
			defer func() {
				if closeErr := dispatcher.Close(); closeErr != nil {
					scoped.Error("failed to close notifiers", "error", closeErr)
				}
			}()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			event := dispatch.Event{
				ID:     uuid.NewString(),
				Type:   eventType,
				Text:   strings.Join(args[1:], " "),
				Extras: extras,
				Time:   time.Now(),
			}
			dispatchErr := dispatcher.Dispatch(ctx, event)

			if metricsTextfile != "" {
				if err := registry.WriteTextfile(metricsTextfile); err != nil {
					scoped.Warn("failed to write metrics", "error", err)
				}
			}
			if dispatchErr != nil {
				return fmt.Errorf("dispatch %s: %w", eventType, dispatchErr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s event %s dispatched\n", eventType, event.ID)
			return nil
		},
	}
	sendCmd.Flags().StringToStringVarP(&extras, "extra", "e", nil, "extra key=value pairs attached to the event")
	sendCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write delivery metrics in Prometheus text format to this file")
	rootCmd.AddCommand(sendCmd)

	var versionJSON bool
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := CurrentVersion(opts.Name)
			if !versionJSON {
				fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return nil
			}
			data, err := json.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// Execute runs the command and exits with appropriate code.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, cmd *cobra.Command) (*logger.ZapLogger, error) {
	level, err := logger.ParseLogLevel(cfg.Observability.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseLogFormat(cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}
	log, err := logger.NewZapLogger(logger.Config{
		Level:  level,
		Format: format,
		File:   cfg.Observability.LogFile,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if level == logger.DebugLevel {
		log.Debug("effective configuration", "config", fmt.Sprintf("%+v", *cfg))
	}
	return log, nil
}

func formatDocument(doc *notify.Document, format string, showSecrets bool) ([]byte, error) {
	raw := maskSecrets(doc)
	if showSecrets {
		raw = doc.Raw()
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		data, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("format yaml: %w", err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("format json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (supported: yaml, json)", format)
	}
}

// maskSecrets renders doc with every non-empty secret config value replaced.
func maskSecrets(doc *notify.Document) map[string]any {
	services := make([]any, 0, doc.Len())
	for _, entry := range doc.Services() {
		raw := entry.Raw()
		rules, _ := schema.Default.Lookup(entry.Service)
		if config, ok := raw["config"].(map[string]any); ok {
			for _, key := range rules.Keys {
				if value, set := config[key.Name].(string); key.Secret && set && value != "" {
					config[key.Name] = secretMask
				}
			}
		}
		services = append(services, raw)
	}
	return map[string]any{"services": services}
}

func eventTypeNames() []string {
	types := schema.EventTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return names
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
