package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paolorotolo/rv-joiner/joiner"
	"github.com/paolorotolo/rv-joiner/joiner/adapters"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the joined list once",
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := loadComposition()
		if err != nil {
			return err
		}
		defer func() { _ = comp.Close() }()

		return renderListing(cmd.OutOrStdout(), comp.Joiner, cfg.GetString("format"))
	},
}

// listRow is one rendered row of the joined list.
type listRow struct {
	Position int    `json:"position"`
	Type     int    `json:"type"`
	Tag      string `json:"tag"`
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
}

// collectRows walks the joined list the way a list host would: resolve
// the joined type, obtain a holder for it and bind it to the position.
func collectRows(j *joiner.Joiner) ([]listRow, error) {
	rows := make([]listRow, 0, j.ItemCount())
	for pos := 0; pos < j.ItemCount(); pos++ {
		globalType, err := j.ItemType(pos)
		if err != nil {
			return nil, err
		}
		_, tag, err := j.GlobalTag(globalType)
		if err != nil {
			return nil, err
		}
		id, err := j.ItemID(pos)
		if errors.Is(err, joiner.ErrStableIDsDisabled) {
			id = ""
		} else if err != nil {
			return nil, err
		}
		holder, err := j.NewHolder(globalType)
		if err != nil {
			return nil, err
		}
		if err := j.BindHolder(holder, pos); err != nil {
			return nil, err
		}
		row, ok := holder.(*adapters.RowHolder)
		if !ok {
			return nil, fmt.Errorf("position %d: unexpected holder type %T", pos, holder)
		}
		rows = append(rows, listRow{
			Position: pos,
			Type:     globalType,
			Tag:      string(tag),
			ID:       string(id),
			Title:    row.Title,
		})
	}
	return rows, nil
}

// renderListing writes the joined list to w in the given format.
func renderListing(w io.Writer, j *joiner.Joiner, format string) error {
	rows, err := collectRows(j)
	if err != nil {
		return err
	}
	switch format {
	case "table":
		fmt.Fprintf(w, "%-3s | %-4s | %-8s | %-8s | %s\n", "POS", "TYPE", "TAG", "ID", "TITLE")
		for _, r := range rows {
			fmt.Fprintf(w, "%-3d | %-4d | %-8s | %-8s | %s\n", r.Position, r.Type, r.Tag, r.ID, r.Title)
		}
		return nil
	case "json":
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return fmt.Errorf("unknown format %q (valid formats: table, json)", format)
}
