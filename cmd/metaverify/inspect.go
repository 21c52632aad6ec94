package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/metaverify"
	"github.com/fwojciec/metaverify/preview"
)

// Run executes the inspect command.
func (c *InspectCmd) Run(deps *Dependencies) error {
	inspection, err := deps.Inspector.Inspect(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", metaverify.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err = enc.Encode(inspection.Result)
	} else {
		err = preview.Write(deps.Stdout, inspection.URL, preview.Categorize(inspection.Result))
	}
	if err != nil {
		return err
	}

	if deps.Reports != nil {
		path, err := deps.Reports.Save(deps.Ctx, inspection)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: failed to save report: %s\n", err)
			return err
		}
		fmt.Fprintf(deps.Stderr, "Saved report to %s\n", path)
	}
	return nil
}
