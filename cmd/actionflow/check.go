package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/actionflow/internal/input/keymap"
	"github.com/dshills/actionflow/internal/logging"
	"github.com/dshills/actionflow/internal/plugin/lua"
)

func newCheckCmd() *cobra.Command {
	var actuation float32
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Load and build keymap files",
		Long: `Decodes each keymap file and builds its context, reporting every
construction error with the action and binding it belongs to.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args, actuation)
		},
	}
	cmd.Flags().Float32Var(&actuation, "actuation", 0, "default actuation threshold of built-in conditions")
	return cmd
}

func runCheck(out io.Writer, files []string, actuation float32) error {
	log := logging.New(logging.Config{Level: logging.LevelWarn, Output: out, Prefix: "check"})
	factory := keymap.NewFactory()
	factory.SetActuation(actuation)
	lua.Register(factory, log)
	loader := keymap.NewLoader(log)

	failed := 0
	for _, path := range files {
		km, err := loader.LoadFile(path)
		if err == nil {
			err = km.Validate()
		}
		if err == nil {
			_, err = km.Build(factory)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%s, priority %d, %d actions)\n", path, km.Name, km.Priority, len(km.Actions))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d keymaps failed", failed, len(files))
	}
	return nil
}
