package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

const intentsDir = "intents"

var errNoIntentFiles = errors.New("no intent files found")

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch interactive mode",
	Long:  `Launches an interactive menu for running verifications and triggers.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInteractive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command) error {
	fmt.Println("GCP Testing Agent - Interactive Mode")
	fmt.Println("====================================")
	fmt.Println()

	for {
		var choice string
		prompt := &survey.Select{
			Message: "What do you want to do?",
			Options: []string{
				"Run verification",
				"Trigger pipeline",
				"Show config",
				"Exit",
			},
		}

		if err := survey.AskOne(prompt, &choice); err != nil {
			// Ctrl+C exits the menu cleanly
			return nil //nolint:nilerr // interrupt is a normal exit path
		}

		switch choice {
		case "Run verification":
			if err := interactiveVerify(cmd); err != nil {
				fmt.Printf("\n❌ Error: %v\n\n", err)
			}

		case "Trigger pipeline":
			var confirmed bool
			confirm := &survey.Confirm{Message: "Publish a pipeline trigger with the default payload?"}
			if err := survey.AskOne(confirm, &confirmed); err != nil || !confirmed {
				continue
			}

			if err := triggerCmd.RunE(cmd, nil); err != nil {
				fmt.Printf("\n❌ Error: %v\n\n", err)
			}

		case "Show config":
			if err := showConfigCmd.RunE(cmd, nil); err != nil {
				fmt.Printf("\n❌ Error: %v\n\n", err)
			}

		case "Exit":
			return nil
		}
	}
}

func interactiveVerify(cmd *cobra.Command) error {
	files, err := listIntentFiles(intentsDir)
	if err != nil {
		return err
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select an intent file:",
		Options: files,
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil //nolint:nilerr // interrupt is a normal exit path
	}

	return runVerify(cmd.Context(), filepath.Join(intentsDir, selected))
}

func listIntentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml") {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoIntentFiles, dir)
	}

	sort.Strings(files)

	return files, nil
}
