package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/input"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/internal/plugin"
)

var readCmd = &cobra.Command{
	Use:   "read [source]",
	Short: "Run a read cycle and ship the records to the targets",
	Long: `Run a single read cycle. Without arguments every configured data source and
file is read; otherwise only the named data source or file.

Examples:
  mqcd read
  mqcd read quotes`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return runRead(cmd, name)
	},
}

func runRead(cmd *cobra.Command, name string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	inputs, err := selectInputs(name)
	if err != nil {
		return err
	}

	subjects, err := input.NewSubjects(mqcConf)
	if err != nil {
		return err
	}
	defer subjects.Cleanup()

	var errs []error
	for _, mk := range inputs {
		inp, err := mk(subjects)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := inp.Start(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", inp.Name(), err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: done\n", inp.Name())
	}
	return errors.Join(errs...)
}

type inputFactory func(*input.Subjects) (input.Inputer, error)

// selectInputs returns the inputs of the named data source or file, or of all
// of them when name is empty.
func selectInputs(name string) ([]inputFactory, error) {
	var inputs []inputFactory
	for _, ds := range mqcConf.DataSources {
		if name == "" || ds.Name == name {
			inputs = append(inputs, connectorInput(ds))
		}
	}
	for _, f := range mqcConf.Files {
		if name == "" || f.Name == name {
			inputs = append(inputs, fileInput(f))
		}
	}
	if name != "" && len(inputs) == 0 {
		return nil, fmt.Errorf("unknown data source or file %q", name)
	}
	if len(inputs) == 0 {
		logger.Warn("Nothing to read, no data sources or files configured")
	}
	return inputs, nil
}

func connectorInput(ds config.DataSource) inputFactory {
	return func(subjects *input.Subjects) (input.Inputer, error) {
		ci, err := newConnectorInput(ds, subjects)
		if err != nil {
			return nil, err
		}
		return ci, nil
	}
}

func newConnectorInput(ds config.DataSource, subjects *input.Subjects) (*input.ConnectorInput, error) {
	connector, err := plugin.GetRegistry().CreateConnector(ds.Adapter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.Name, err)
	}
	return input.NewConnectorInput(ds, connector, subjects, mqcConf.GetTimeout())
}

func fileInput(f config.File) inputFactory {
	return func(subjects *input.Subjects) (input.Inputer, error) {
		reader, err := plugin.GetRegistry().CreateFileReader(f.Reader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		logger.Debug("Reading file", slog.String("name", f.Name), slog.String("reader", f.Reader))
		return input.NewFileInput(f, reader, subjects), nil
	}
}
