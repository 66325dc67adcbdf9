package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/serifu/config"
	"github.com/linanwx/serifu/provider"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize serifu configuration",
	Long:  `Create the serifu configuration directory and a config file through a short wizard.`,
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

// providerURLs maps provider names to their API key portal URLs.
var providerURLs = map[string]string{
	"openai":     "https://platform.openai.com/api-keys",
	"openrouter": "https://openrouter.ai/keys",
	"anthropic":  "https://console.anthropic.com",
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or delete it first.")
		return nil
	}

	var (
		selectedProvider string
		selectedModel    string
		apiKey           string
		gatewayAddr      = config.DefaultConfig().Gateway.Addr
	)

	// Step 1: provider
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your LLM provider").
				Options(buildProviderOptions()...).
				Value(&selectedProvider),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 2: model and key
	reg, _ := provider.Registration(selectedProvider)
	selectedModel = reg.DefaultModel
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model for "+selectedProvider).
				Description("Leave the default unless you know you want another model.").
				Value(&selectedModel),
			huh.NewInput().
				Title("Enter your "+selectedProvider+" API key").
				Description(apiKeyHint(selectedProvider, reg.EnvKey)).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" && os.Getenv(reg.EnvKey) == "" {
						return fmt.Errorf("API key is required when %s is not set", reg.EnvKey)
					}
					return nil
				}).
				Value(&apiKey),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 3: gateway address
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gateway listen address").
				Value(&gatewayAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg := buildOnboardConfig(selectedProvider, selectedModel, apiKey, gatewayAddr)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("serifu initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Provider:", cfg.Provider.Name)
	fmt.Println("  Model:", cfg.Provider.Model)
	fmt.Println("  Gateway:", cfg.Client.Endpoint)
	fmt.Println()
	fmt.Println("Run 'serifu serve', then 'serifu chat' in another terminal.")
	return nil
}

// buildOnboardConfig applies the wizard answers to a default config.
func buildOnboardConfig(providerName, model, apiKey, addr string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Provider.Name = providerName
	if m := strings.TrimSpace(model); m != "" {
		cfg.Provider.Model = m
	} else if reg, ok := provider.Registration(providerName); ok {
		cfg.Provider.Model = reg.DefaultModel
	}
	cfg.Provider.APIKey = strings.TrimSpace(apiKey)
	if a := strings.TrimSpace(addr); a != "" && a != cfg.Gateway.Addr {
		cfg.Gateway.Addr = a
		cfg.Client.Endpoint = "http://" + a + cfg.Gateway.Path
	}
	return cfg
}

func apiKeyHint(name, envKey string) string {
	hint := "Create one at " + providerURLs[name]
	if envKey != "" {
		hint += ". Leave empty to use $" + envKey
	}
	return hint
}

func buildProviderOptions() []huh.Option[string] {
	names := provider.SupportedProviders()
	// Put openai first.
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n == "openai" {
			sorted = append([]string{n}, sorted...)
		} else {
			sorted = append(sorted, n)
		}
	}
	options := make([]huh.Option[string], 0, len(sorted))
	for _, name := range sorted {
		label := name
		if reg, ok := provider.Registration(name); ok {
			label += " (" + reg.DefaultModel + ")"
		}
		if name == "openai" {
			label += " [Recommended]"
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}
