package main

import (
	"fmt"

	"autohonk/internal/input"
	"autohonk/internal/logging"

	"github.com/spf13/cobra"
)

// keysCmd lists the key names --key accepts
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognized key names",
	Long: `Lists the named keys accepted by --key and key.override.
Any single letter or digit is accepted as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range input.KeyNames() {
			k, _ := input.Resolve(name)
			fmt.Fprintf(out, "%-14s 0x%02X\n", name, uint16(k.Code))
		}
		fmt.Fprintln(out, "a-z, 0-9       (single characters)")
		return nil
	},
}

// bindingCmd shows what Primary Fire is bound to and which key will be used
var bindingCmd = &cobra.Command{
	Use:   "binding",
	Short: "Show the detected Primary Fire binding",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		dir := cfg.Key.BindingsDir

		if dir == "" {
			fmt.Fprintln(out, "Bindings directory: not configured")
		} else {
			fmt.Fprintf(out, "Bindings directory: %s\n", dir)
			if name, err := input.DetectPrimaryFire(dir); err != nil {
				fmt.Fprintf(out, "Primary Fire:       not detected (%v)\n", err)
			} else {
				_, ok := input.Resolve(name)
				fmt.Fprintf(out, "Primary Fire:       %s%s\n", name, unsupportedSuffix(ok))
			}
		}

		key, source := chooseKey(cfg, logger.Get(logging.CategoryInput))
		fmt.Fprintf(out, "Key in use:         %s (%s)%s\n", key.String(), source, unsupportedSuffix(key.Resolved()))
		return nil
	},
}

func unsupportedSuffix(ok bool) string {
	if ok {
		return ""
	}
	return " [unsupported]"
}
