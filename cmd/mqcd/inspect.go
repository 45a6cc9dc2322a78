package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Short:   "Check that every data source and file is available",
	Args:    cobra.NoArgs,
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		inputs, err := selectInputs("")
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		unavailable := 0
		for _, mk := range inputs {
			inp, err := mk(nil)
			if err != nil {
				return err
			}
			state := "available"
			if !inp.IsReady(ctx) {
				state = "unavailable"
				unavailable++
			}
			fmt.Fprintf(w, "%s\t%s\n", inp.Name(), state)
		}
		w.Flush()

		if unavailable > 0 {
			return fmt.Errorf("%d source(s) unavailable", unavailable)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration of every data source",
	Long: `Validate the configuration of every data source with its connector.
All configuration fields are checked.`,
	Args:    cobra.NoArgs,
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		invalid := 0
		for _, ds := range mqcConf.DataSources {
			ci, err := newConnectorInput(ds, nil)
			if err != nil {
				return err
			}
			formErrors := ci.Validate(ctx)
			if len(formErrors) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "VALID: %s\n", ds.Name)
				continue
			}
			invalid++
			for _, fe := range formErrors {
				fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %s: %s\n", ds.Name, fe.Error())
			}
		}
		if invalid > 0 {
			return fmt.Errorf("%d data source(s) invalid", invalid)
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <source> <preview>",
	Short: "Show a preview of a data source",
	Long: `Show a preview of a data source, as shown while configuring it.

Examples:
  mqcd preview quotes Quotes
  mqcd preview quotes Authors`,
	Args:    cobra.ExactArgs(2),
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		ds, err := dataSource(args[0])
		if err != nil {
			return err
		}
		ci, err := newConnectorInput(ds, nil)
		if err != nil {
			return err
		}

		previews, total, err := ci.Preview(ctx, args[1])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range previews {
			stamp := ""
			if p.DateTime != nil {
				stamp = p.DateTime.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Title, p.Description, stamp)
		}
		w.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", total)
		return nil
	},
}
