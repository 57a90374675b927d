package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the application configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration in YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open the configuration in $EDITOR, creating it with defaults if needed",
		Args:  cobra.NoArgs,
		RunE:  runConfigEdit,
	})
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	for _, v := range cfg.Validate() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", v.Level, v.Message)
	}
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := resolvedConfigPath()
	if err := ensureConfigFileExists(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts, err := splitEditorCommand(editor)
	if err != nil {
		return err
	}
	parts = append(parts, path)

	execCmd := exec.CommandContext(commandContext(cmd), parts[0], parts[1:]...)
	execCmd.Stdout = cmd.OutOrStdout()
	execCmd.Stderr = cmd.ErrOrStderr()
	execCmd.Stdin = cmd.InOrStdin()

	if err := execCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

func ensureConfigFileExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}

	data, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// splitEditorCommand splits EDITOR with shell quoting rules, so values like
// `code -w` or a quoted path with spaces both work.
func splitEditorCommand(value string) ([]string, error) {
	parts, err := shellquote.Split(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid EDITOR value %q: %w", value, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("invalid EDITOR value: %q", value)
	}
	return parts, nil
}
