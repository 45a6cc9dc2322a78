package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/input"
	"mqc.szuro.net/internal/plugin"
	"mqc.szuro.net/pkg/adapter"
)

var fileCmd = &cobra.Command{
	Use:   "file <name|path> [reader]",
	Short: "Read a report file and ship the records to the targets",
	Long: `Read a report file. The first argument is the name of a configured file or
a path. For a path without a reader the registered file reader with the highest
priority that accepts the file is used.

Examples:
  mqcd file report
  mqcd file /data/Report.Example.xml
  mqcd file /data/Report.Example.xml xmlreader`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		f, ok := mqcConf.File(args[0])
		if !ok {
			f = config.File{Path: args[0]}
		}
		if len(args) == 2 {
			f.Reader = args[1]
		}

		reader, err := fileReader(f)
		if err != nil {
			return err
		}

		subjects, err := input.NewSubjects(mqcConf)
		if err != nil {
			return err
		}
		defer subjects.Cleanup()

		fi := input.NewFileInput(f, reader, subjects)
		result, err := fi.Read(ctx)
		if err != nil {
			return err
		}
		if err := subjects.Publish(ctx, fi.Name(), result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d data, %d findings\n", fi.Name(), len(result.Data), len(result.Findings))
		return nil
	},
}

func fileReader(f config.File) (adapter.FileReader, error) {
	registry := plugin.GetRegistry()
	if f.Reader != "" {
		return registry.CreateFileReader(f.Reader)
	}

	var readers []adapter.FileReader
	for _, p := range registry.ListPlugins() {
		if p.Kind != adapter.FILE_READER {
			continue
		}
		r, err := registry.CreateFileReader(p.Name)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
	}
	return input.SelectFileReader(f.Path, readers)
}
