package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Show the detected distribution, architecture and package manager",
		Args:  cobra.NoArgs,
		RunE:  runHost,
	}
}

func runHost(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	h, err := a.detectHost(commandContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	manager := "unknown"
	if h.Manager != nil {
		manager = string(h.Manager.Kind())
	}

	if outputJSON {
		data, err := json.MarshalIndent(map[string]string{
			"id":      h.ID,
			"arch":    h.Arch.Raw(),
			"manager": manager,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Distribution:    %s\n", nonEmptyOrDash(h.ID))
	fmt.Fprintf(out, "Architecture:    %s (%s)\n", h.Arch.Raw(), h.Arch.Name())
	fmt.Fprintf(out, "Package manager: %s\n", manager)
	return nil
}
