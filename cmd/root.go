// Package cmd wires the scoutcon command line: flags, configuration and the
// history/config subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/scoutcon/internal/app"
	"github.com/zjrosen/scoutcon/internal/config"
	"github.com/zjrosen/scoutcon/internal/log"
)

var version = "dev"

// appRun is swapped out by tests.
var appRun = app.Run

const localConfigPath = ".scoutcon/config.yaml"

type rootFlags struct {
	configFile string
	gamePath   string
	commands   []string
	debug      bool
}

// NewRootCmd builds a fresh command tree. Each call has its own flag state
// and viper instance.
func NewRootCmd() *cobra.Command {
	var flags rootFlags
	v := viper.New()

	root := &cobra.Command{
		Use:   "scoutcon",
		Short: "Operator console for the Scout inspection library",
		Long: `scoutcon finds running game clients (or launches one with --game),
attaches the Scout library to each, and then reads commands from stdin,
executing them one at a time against the selected process.

Console built-ins:
  setproc <pid>   direct commands to one attached process
  setproc         broadcast to every attached process
  cls | clear     clear the terminal
  exit            shut the library down and quit`,
		Example: `  scoutcon
  scoutcon -g "C:\Games\World of Warcraft\Wow.exe"
  scoutcon -c "/console reloadui" -c "/console scriptErrors 1"
  scoutcon -c version /dump`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			return checkTrailingCommands(cmd, args, flags.commands)
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, flags.configFile, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, v, flags, args)
		},
	}
	root.SetVersionTemplate("scoutcon {{.Version}}\n")
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(c.UsageString())
		return err
	})

	root.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"config file (default: ./"+localConfigPath+" or ~/.config/scoutcon/config.yaml)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false,
		"write a debug log (also SCOUTCON_DEBUG; path from SCOUTCON_LOG or log.path)")
	root.Flags().StringVarP(&flags.gamePath, "game", "g", "",
		"launch this game executable with the console argument and attach to it")
	root.Flags().StringArrayVarP(&flags.commands, "cmd", "c", nil,
		"command to execute after attaching (repeatable; trailing arguments are more commands)")
	// Flag parsing stops at the first positional so trailing commands keep
	// their order after the -c values.
	root.Flags().SetInterspersed(false)

	root.AddCommand(newHistoryCmd(v))
	root.AddCommand(newConfigCmd())
	return root
}

// checkTrailingCommands accepts positional arguments only after at least one
// -c, and rejects flags that ended up among them.
func checkTrailingCommands(cmd *cobra.Command, args, commands []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(commands) == 0 {
		return fmt.Errorf("unexpected argument %q (use -c to pass commands)", args[0])
	}
	dash := cmd.ArgsLenAtDash()
	for i, a := range args {
		if dash >= 0 && i >= dash {
			break
		}
		if len(a) > 1 && strings.HasPrefix(a, "-") {
			return fmt.Errorf("flag %q follows trailing commands; put flags before the commands", a)
		}
	}
	return nil
}

// initConfig resolves the config file and loads it into v. A missing file
// leaves the defaults in place.
func initConfig(v *viper.Viper, cfgFile string, stderr io.Writer) error {
	setDefaults(v, config.Defaults())

	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case fileExists(localConfigPath):
		v.SetConfigFile(localConfigPath)
	default:
		if dir := config.DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
		return nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level, err := log.ParseLevel(v.GetString("log.level"))
		if err != nil {
			fmt.Fprintf(stderr, "config reload: %v\n", err)
			return
		}
		log.SetMinLevel(level)
		log.Info(log.CatConfig, "config reloaded", "path", e.Name, "log_level", level)
	})
	v.WatchConfig()
	return nil
}

func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("target.window_title", d.Target.WindowTitle)
	v.SetDefault("target.launch_argument", d.Target.LaunchArgument)
	v.SetDefault("launch.input_idle_timeout", d.Launch.InputIdleTimeout)
	v.SetDefault("launch.poll_interval", d.Launch.PollInterval)
	v.SetDefault("launch.window_timeout", d.Launch.WindowTimeout)
	v.SetDefault("console.tick_interval", d.Console.TickInterval)
	v.SetDefault("console.log_buffer_size", d.Console.LogBufferSize)
	v.SetDefault("console.prompt", d.Console.Prompt)
	v.SetDefault("console.transcript_path", d.Console.TranscriptPath)
	v.SetDefault("scout.library", d.Scout.Library)
	v.SetDefault("scout.version", d.Scout.Version)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
}

func loadConfig(v *viper.Viper) (config.Config, error) {
	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, v *viper.Viper, flags rootFlags, args []string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	cleanup, err := initLogging(cfg.Log, flags.debug)
	if err != nil {
		return err
	}
	defer cleanup()
	if used := v.ConfigFileUsed(); used != "" {
		log.Info(log.CatConfig, "config loaded", "path", used)
	}

	commands := append(append([]string(nil), flags.commands...), args...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return appRun(ctx, app.Options{
		Config:   cfg,
		GamePath: flags.gamePath,
		Commands: commands,
		Stdin:    cmd.InOrStdin(),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})
}

// initLogging enables the debug log when --debug or SCOUTCON_DEBUG is set.
func initLogging(cfg config.LogConfig, debugFlag bool) (func(), error) {
	if os.Getenv("SCOUTCON_DEBUG") == "" && !debugFlag {
		return func() {}, nil
	}
	logPath := os.Getenv("SCOUTCON_LOG")
	if logPath == "" {
		logPath = cfg.Path
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("log.level: %w", err)
	}
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "scoutcon starting", "version", version, "log_path", logPath)
	return cleanup, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(filepath.Clean(path))
	return err == nil && !info.IsDir()
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
}
