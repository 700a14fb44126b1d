package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"flowsight/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize flowsight configuration interactively",
	Long: `Guides you through setting up flowsight configuration step by step.
Creates a config file with the file selection, detection category, and
edge inference settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.Default()

	// === SECTION 1: File selection ===
	extensions := strings.Join(cfg.IncludeExtensions, ",")
	excludeDirs := strings.Join(cfg.ExcludeDirs, ",")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("File extensions to scan (comma separated)").
				Placeholder(extensions).
				Value(&extensions),
			huh.NewInput().
				Title("Directories to skip (comma separated)").
				Placeholder(excludeDirs).
				Value(&excludeDirs),
		),
	)
	err := form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg.IncludeExtensions = splitList(extensions)
	cfg.ExcludeDirs = splitList(excludeDirs)

	// === SECTION 2: Detection categories ===
	var categories []string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Detection categories").
				Description("Which operation kinds should scans look for?").
				Options(
					huh.NewOption("Database operations", "database").Selected(true),
					huh.NewOption("API calls", "api").Selected(true),
					huh.NewOption("File I/O", "file_io").Selected(true),
					huh.NewOption("Message queues", "messages").Selected(true),
					huh.NewOption("Data transforms", "transforms").Selected(true),
					huh.NewOption("Cache access", "cache").Selected(true),
					huh.NewOption("UI triggers", "ui_triggers").Selected(true),
				).
				Value(&categories),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	applyCategories(cfg, categories)

	// === SECTION 3: Edge inference ===
	var inferEdges bool = cfg.EdgeInference.Enabled
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Edge inference").
				Description("Connect detected operations into workflows?").
				Affirmative("Yes, infer edges").
				Negative("No, nodes only").
				Value(&inferEdges),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.EdgeInference.Enabled = inferEdges

	// === SECTION 4: Config location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.flowsight/config.yaml)", "global"),
					huh.NewOption("Project (./.flowsight/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".flowsight", "config.yaml")
	} else {
		configPath = ".flowsight/config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		err = form.Run()
		if err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Extensions: %s\n", strings.Join(cfg.IncludeExtensions, ", "))
	fmt.Printf("Excluded dirs: %s\n", strings.Join(cfg.ExcludeDirs, ", "))
	fmt.Printf("Categories: %s\n", strings.Join(categories, ", "))
	fmt.Printf("Edge inference: %t\n", cfg.EdgeInference.Enabled)
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func applyCategories(cfg *config.Config, selected []string) {
	cfg.Detect = config.Detect{}
	for _, c := range selected {
		switch c {
		case "database":
			cfg.Detect.Database = true
		case "api":
			cfg.Detect.API = true
		case "file_io":
			cfg.Detect.FileIO = true
		case "messages":
			cfg.Detect.Messages = true
		case "transforms":
			cfg.Detect.Transforms = true
		case "cache":
			cfg.Detect.Cache = true
		case "ui_triggers":
			cfg.Detect.UITriggers = true
		}
	}
}

func init() {
	RootCmd.AddCommand(initCmd)
}
