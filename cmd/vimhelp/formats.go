package main

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// FormatsCmd implements the 'formats' command.
type FormatsCmd struct{}

func (f *FormatsCmd) Run(g *Global) error {
	reg, err := newRegistry(g.Logger)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, format := range reg.Formats() {
		parallel := ""
		if !format.ParallelSafe {
			parallel = " (serial)"
		}
		fmt.Fprintf(tw, "%s\t%s%s\n", format.Name, format.OutSuffix, parallel)
		for _, o := range format.Options {
			fmt.Fprintf(tw, "  %s\t%v\t%s\n", o.Name, o.Default, o.Help)
		}
	}
	return tw.Flush()
}
