package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamthetwodigiter/rusty-rebase/internal/catalog"
)

type listEntry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Default     bool   `json:"default"`
	Steps       int    `json:"steps"`
	Description string `json:"description,omitempty"`
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the software in the catalog",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	entries := listEntries(cat)
	if outputJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "(catalog is empty)")
		return nil
	}
	fmt.Fprintf(out, "%-16s %-28s %-16s %-8s %s\n", "Key", "Name", "Source", "Default", "Steps")
	for _, e := range entries {
		def := "no"
		if e.Default {
			def = "yes"
		}
		fmt.Fprintf(out, "%-16s %-28s %-16s %-8s %d\n", e.Key, e.Name, e.Source, def, e.Steps)
	}
	return nil
}

func listEntries(cat catalog.Catalog) []listEntry {
	keys := cat.Keys()
	entries := make([]listEntry, 0, len(keys))
	for _, key := range keys {
		spec := cat.Software[key]
		entries = append(entries, listEntry{
			Key:         key,
			Name:        spec.DisplayName,
			Source:      spec.Source.Kind(),
			Default:     spec.EnabledByDefault,
			Steps:       len(spec.Steps),
			Description: spec.Description,
		})
	}
	return entries
}
