// Package cli is the loanmitra terminal client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/remote"
	"github.com/BerylCAtieno/loanmitra/internal/session"
	"github.com/BerylCAtieno/loanmitra/internal/speech"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

type rootFlags struct {
	configDir string
	apiURL    string
	language  string
	verbose   bool
}

// app holds everything a command needs. It is built once per invocation
// by the root command's PersistentPreRunE.
type app struct {
	cfg        Config
	configPath string
	lang       language.Code

	out      io.Writer
	errOut   io.Writer
	logger   *utils.Logger
	notifier *terminalNotifier

	store    *session.FileStore
	client   *remote.Client
	gate     *session.Gate
	speaker  *speech.Speaker
	listener *speech.Listener
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	root := &cobra.Command{
		Use:   "loanmitra",
		Short: "Understand your loan documents",
		Long: styleHeader.Render("LoanMitra") + " - loan document assistant\n\n" +
			"Upload loan documents, get plain-language summaries in your language\n" +
			"and ask questions about loan terms.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "Directory holding config.yaml and session.yaml")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "LoanMitra API base URL")
	root.PersistentFlags().StringVarP(&flags.language, "language", "l", "", "Language for summaries and answers")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newUploadCommand(a),
		newAnalyzeCommand(a),
		newDocumentsCommand(a),
		newAskCommand(a),
		newChatCommand(a),
		newSpeakCommand(a),
		newLanguagesCommand(a),
		newConfigCommand(a),
	)
	return root
}

// Execute runs the CLI with ctx cancelled on interrupt by the caller.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	level := "warn"
	if flags.verbose {
		level = "debug"
	}
	a.logger = utils.NewLoggerTo(a.errOut, level)
	a.notifier = newTerminalNotifier(a.errOut)

	dir := flags.configDir
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return err
		}
	}
	a.configPath = filepath.Join(dir, configFileName)

	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.language != "" {
		code, ok := language.Parse(flags.language)
		if !ok {
			return fmt.Errorf("%w: unknown language %q", utils.ErrValidation, flags.language)
		}
		cfg.Language = string(code)
	}
	a.cfg = cfg
	a.lang = cfg.LanguageCode()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	a.store, err = session.NewFileStore(filepath.Join(dir, sessionFileName), a.logger)
	if err != nil {
		return err
	}
	a.client = remote.New(cfg.APIURL, remote.WithToken(a.store.Token))
	a.gate = session.NewGate(session.NewRemoteAuth(a.store, a.client, a.showSignInURL, a.logger), a.notifier, a.logger)

	a.speaker = speech.NewSpeaker(speech.DetectSynthesizer(a.logger), a.logger, speech.WithRate(cfg.SpeechRate))
	a.listener = speech.NewListener(speech.NewCommandRecognizer(cfg.STTCommand))

	a.logger.Debug("CLI initialized", "api_url", cfg.APIURL, "language", a.lang, "config", a.configPath)
	return nil
}

func (a *app) close() {
	if a.speaker != nil {
		a.speaker.Wait()
	}
	if a.gate != nil {
		a.gate.Close()
	}
}

// requireUser mounts the session gate and fails unless someone is signed in.
func (a *app) requireUser(ctx context.Context) error {
	if err := a.gate.Mount(ctx); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if _, err := a.gate.Require(); err != nil {
		return fmt.Errorf("%w: run `loanmitra login` first", err)
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
