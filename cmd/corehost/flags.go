package main

import (
	"github.com/spf13/cobra"
)

func bindRunFlags(cmd *cobra.Command, flags *Config) {
	defaults := DefaultConfig()
	f := cmd.PersistentFlags()
	f.StringVar(&flags.ExePath, "exe-path", defaults.ExePath, "Executable path reported to the runtime")
	f.StringVar(&flags.RuntimeDir, "runtime-dir", defaults.RuntimeDir, "Directory holding the runtime library and platform assemblies")
	f.StringVar(&flags.AppDir, "app-dir", defaults.AppDir, "Application directory (APP_PATHS and APP_NI_PATHS)")
	f.StringVar(&flags.Assembly, "assembly", defaults.Assembly, "Managed assembly name")
	f.StringVar(&flags.Type, "type", defaults.Type, "Managed type name")
	f.StringVar(&flags.Method, "method", defaults.Method, "Static managed method returning a string")
	f.StringVar(&flags.HostName, "host-name", defaults.HostName, "App domain friendly name")
	f.BoolVar(&flags.StrictScan, "strict-scan", false, "Fail if the runtime directory cannot be listed")
}

func applyFlagOverrides(cmd *cobra.Command, base Config, flags Config) Config {
	if flagChanged(cmd, "exe-path") {
		base.ExePath = flags.ExePath
	}
	if flagChanged(cmd, "runtime-dir") {
		base.RuntimeDir = flags.RuntimeDir
	}
	if flagChanged(cmd, "app-dir") {
		base.AppDir = flags.AppDir
	}
	if flagChanged(cmd, "assembly") {
		base.Assembly = flags.Assembly
	}
	if flagChanged(cmd, "type") {
		base.Type = flags.Type
	}
	if flagChanged(cmd, "method") {
		base.Method = flags.Method
	}
	if flagChanged(cmd, "host-name") {
		base.HostName = flags.HostName
	}
	if flagChanged(cmd, "strict-scan") {
		base.StrictScan = flags.StrictScan
	}
	return base
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Changed
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f.Changed
	}
	return false
}
