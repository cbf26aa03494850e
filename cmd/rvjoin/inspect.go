package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paolorotolo/rv-joiner/joiner/compose"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the sources and the joined translation tables",
	Long: `Inspect shows the composition from the inside: the manifest sources
with their declared tags, the joined type table assigning one joined
type ID per (binding, tag) pair, and the position table mapping every
joined position back to its source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := loadComposition()
		if err != nil {
			return err
		}
		defer func() { _ = comp.Close() }()

		return renderInspect(cmd.OutOrStdout(), comp)
	},
}

func renderInspect(w io.Writer, comp *compose.Composition) error {
	fmt.Fprintln(w, "SOURCES")
	fmt.Fprintf(w, "%-3s | %-10s | %-6s | %-5s | %s\n", "IDX", "NAME", "KIND", "ITEMS", "TAGS")
	for i, src := range comp.Sources {
		tags := src.Adapter.TypeTags()
		names := make([]string, len(tags))
		for t, tag := range tags {
			names[t] = string(tag)
		}
		fmt.Fprintf(w, "%-3d | %-10s | %-6s | %-5d | %s\n",
			i, src.Name, src.Kind, src.Adapter.ItemCount(), strings.Join(names, ","))
	}

	j := comp.Joiner

	fmt.Fprintln(w)
	fmt.Fprintln(w, "TYPE TABLE")
	fmt.Fprintf(w, "%-4s | %-7s | %s\n", "TYPE", "BINDING", "TAG")
	for id := 0; id < j.TypeCount(); id++ {
		binding, tag, err := j.GlobalTag(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-4d | %-7d | %s\n", id, binding, tag)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "POSITION TABLE")
	fmt.Fprintf(w, "%-3s | %-7s | %-5s | %s\n", "POS", "BINDING", "LOCAL", "TYPE")
	for pos := 0; pos < j.ItemCount(); pos++ {
		loc, err := j.Locate(pos)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-3d | %-7d | %-5d | %d\n", pos, loc.Binding, loc.Local, loc.GlobalType)
	}
	return nil
}
