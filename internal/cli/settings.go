package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/loanmitra/internal/language"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

func newLanguagesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, code := range language.All() {
				marker := "  "
				if code == a.lang {
					marker = styleSuccess.Render("• ")
				}
				a.printf("%s%-10s %-7s %s\n", marker, code, language.Locale(code), language.Name(code))
			}
			return nil
		},
	}
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printf("%s %s\n", formatMuted("file:"), a.configPath)
			a.printf("api_url:     %s\n", a.cfg.APIURL)
			a.printf("language:    %s\n", a.cfg.Language)
			a.printf("speech_rate: %g\n", a.cfg.SpeechRate)
			a.printf("stt_command: %s\n", a.cfg.STTCommand)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set api_url, language, speech_rate or stt_command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if err := setConfigValue(&cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := SaveConfig(a.configPath, cfg); err != nil {
				return err
			}
			a.println(formatSuccess(fmt.Sprintf("%s updated", args[0])))
			return nil
		},
	})
	return cmd
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "api_url":
		cfg.APIURL = value
	case "language":
		code, ok := language.Parse(value)
		if !ok {
			return fmt.Errorf("%w: unknown language %q", utils.ErrValidation, value)
		}
		cfg.Language = string(code)
	case "speech_rate":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate <= 0 {
			return fmt.Errorf("%w: speech_rate must be a positive number", utils.ErrValidation)
		}
		cfg.SpeechRate = rate
	case "stt_command":
		cfg.STTCommand = value
	default:
		return fmt.Errorf("%w: unknown setting %q", utils.ErrValidation, key)
	}
	return nil
}
