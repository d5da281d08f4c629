package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the stored configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the selected model and configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("config file: %s\n", path)
		fmt.Printf("selected model: %s\n", cfg.SelectedModel)
		providers := cfg.ProvidersWithKeys()
		if len(providers) == 0 {
			fmt.Println("providers with keys: none")
			return nil
		}
		fmt.Println("providers with keys:")
		for _, p := range providers {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

var configModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the available models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		for _, m := range config.AvailableModels {
			marker := " "
			if m.Ref.String() == cfg.SelectedModel {
				marker = "*"
			}
			key := ""
			if cfg.ProviderAPIKeys[m.Ref.Provider] == "" {
				key = " (no API key)"
			}
			fmt.Printf("%s %-35s %s%s\n", marker, m.Ref, m.Name, key)
		}
		return nil
	},
}

var configSetModelCmd = &cobra.Command{
	Use:   "set-model <provider/model>",
	Short: "Select the model used for analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.ParseModelRef(args[0]); err != nil {
			return err
		}
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.SelectedModel = args[0]
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Printf("selected model set to %s\n", args[0])
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> <api-key>",
	Short: "Store an API key for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		known := false
		for _, p := range config.KnownProviders {
			if p == provider {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown provider %q (known: %v)", provider, config.KnownProviders)
		}

		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.SetAPIKey(provider, args[1])
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Printf("API key stored for %s\n", provider)
		return nil
	},
}

var configRemoveKeyCmd = &cobra.Command{
	Use:   "remove-key <provider>",
	Short: "Delete a provider's API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.RemoveAPIKey(args[0])
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Printf("API key removed for %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configModelsCmd)
	configCmd.AddCommand(configSetModelCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configRemoveKeyCmd)
}
