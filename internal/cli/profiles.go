package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/restup/internal/config"
	"github.com/wesleyorama2/restup/internal/output"
	"github.com/wesleyorama2/restup/rest"
)

var profilesCmd = newProfilesCmd()

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List and validate the profiles in a config file",
		Long: `Loads the profile file, validates every profile and prints one line per
profile with the base URL it resolves to. Exits with an error when the file
does not validate.`,
		Args: cobra.NoArgs,
		RunE: runProfiles,
	}
	cmd.Flags().String("config", "", "Profile file (YAML or JSON, default $RESTUP_CONFIG)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	return cmd
}

func runProfiles(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = os.Getenv("RESTUP_CONFIG")
	}
	if configPath == "" {
		return fmt.Errorf("no config file: pass --config or set RESTUP_CONFIG")
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	noColor = output.ColorDisabled(noColor)
	colors := output.NewColorScheme(noColor)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s: %d profile(s)\n", output.SuccessIcon(noColor), configPath, len(cfg.Profiles))

	for _, name := range cfg.Names() {
		p := cfg.Profiles[name]

		protocol, _ := rest.ParseProtocol(p.Protocol)
		base, err := rest.BuildURL(protocol, p.Host, p.Port, "", nil)
		if err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}

		marker := " "
		if name == cfg.Default {
			marker = "*"
		}
		auth := ""
		if p.Username != nil && p.Password != nil {
			auth = " (basic auth)"
		}
		fmt.Fprintf(out, "%s %s  %s%s\n", marker, colors.Label.Sprint(name), colors.URL.Sprint(base.String()), auth)
	}
	return nil
}
