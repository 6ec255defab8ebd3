package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinbase/clrhost-go/pkg/clrhost"
	"github.com/coinbase/clrhost-go/pkg/clrhost/clrtest"
)

// isolate keeps the developer's own config out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(configEnv, "")
}

func runtimeDir(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	return dir + string(os.PathSeparator)
}

func runCLI(t *testing.T, rt *clrtest.Runtime, args ...string) (int, string) {
	t.Helper()
	cmd := newRootCmd(rt.Config())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	code := execute(cmd, args)
	return code, out.String()
}

func demoRuntime(result string) *clrtest.Runtime {
	rt := clrtest.New()
	def := DefaultConfig()
	rt.RegisterString(def.Assembly, def.Type, def.Method, result)
	return rt
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "./corehost", cfg.ExePath)
	assert.Equal(t, "/usr/share/dotnet/shared/Microsoft.NETCore.App/2.0.0/", cfg.RuntimeDir)
	assert.Equal(t, "./", cfg.AppDir)
	assert.Equal(t, "ClassLibrary2", cfg.Assembly)
	assert.Equal(t, "ClassLibrary2.Class1", cfg.Type)
	assert.Equal(t, "Test", cfg.Method)
	assert.Equal(t, clrhost.DefaultHostName, cfg.HostName)
	assert.False(t, cfg.StrictScan)
}

func TestRunPrintsResult(t *testing.T) {
	isolate(t)
	dir := runtimeDir(t, "System.Private.CoreLib.dll", "mscorlib.dll", "notes.txt")
	rt := demoRuntime("Hello from managed code")

	code, out := runCLI(t, rt, "--runtime-dir", dir, "--app-dir", "/srv/app/")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Result: Hello from managed code\n", out)

	assert.Zero(t, rt.OutstandingBlocks())
	assert.Equal(t, 1, rt.Freed())
	assert.Equal(t, 1, rt.Shutdowns())
	assert.Zero(t, rt.LoadedLibraries())
	assert.False(t, rt.Live())

	calls := rt.InitCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "./corehost", calls[0].ExePath)
	assert.Equal(t, "corerun", calls[0].HostName)
	assert.Equal(t, "/srv/app/", calls[0].Properties[clrhost.PropertyAppPaths])
	assert.Equal(t, "/srv/app/", calls[0].Properties[clrhost.PropertyAppNIPaths])

	tpa := clrhost.SplitPathList(calls[0].Properties[clrhost.PropertyTrustedPlatformAssemblies])
	assert.ElementsMatch(t, []string{dir + "System.Private.CoreLib.dll", dir + "mscorlib.dll"}, tpa)

	loads := rt.Loads()
	require.Len(t, loads, 1)
	assert.True(t, strings.HasPrefix(loads[0], dir))
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(rt *clrtest.Runtime)
		wantOut    string
		wantLoaded int
	}{
		{
			name:    "library load",
			setup:   func(rt *clrtest.Runtime) { rt.LoadErr = errors.New("no such file") },
			wantOut: "Error: failed to load CoreCLR library",
		},
		{
			name: "missing export",
			setup: func(rt *clrtest.Runtime) {
				rt.MissingSymbols = map[string]bool{clrhost.SymbolCreateDelegate: true}
			},
			wantOut: "Error: function coreclr_create_delegate not found in CoreCLR library\n",
		},
		{
			name:    "initialize",
			setup:   func(rt *clrtest.Runtime) { rt.InitializeStatus = clrtest.StatusTypeLoad },
			wantOut: "Error: coreclr_initialize failed - status: 0x80131522\n",
		},
		{
			name:    "create delegate",
			setup:   func(rt *clrtest.Runtime) { rt.CreateDelegateStatus = clrtest.StatusTypeLoad },
			wantOut: "Error: coreclr_create_delegate failed - status: 0x80131522\n",
		},
		{
			name:       "shutdown",
			setup:      func(rt *clrtest.Runtime) { rt.ShutdownStatus = clrtest.StatusTypeLoad },
			wantOut:    "Result: ok\nError: coreclr_shutdown_2 failed - status: 0x80131522\n",
			wantLoaded: 1,
		},
		{
			name:       "unload",
			setup:      func(rt *clrtest.Runtime) { rt.UnloadErr = errors.New("busy") },
			wantOut:    "Result: ok\nError: failed to unload CoreCLR library: busy\n",
			wantLoaded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			rt := demoRuntime("ok")
			tt.setup(rt)

			code, out := runCLI(t, rt, "--runtime-dir", runtimeDir(t, "a.dll"))

			assert.Equal(t, 1, code)
			assert.True(t, strings.HasPrefix(out, tt.wantOut), "output %q", out)
			assert.Equal(t, tt.wantLoaded, rt.LoadedLibraries())
			assert.Zero(t, rt.OutstandingBlocks())
		})
	}
}

func TestRunShutsDownAfterDelegateFailure(t *testing.T) {
	isolate(t)
	rt := clrtest.New()

	code, out := runCLI(t, rt, "--runtime-dir", runtimeDir(t), "--method", "Missing")

	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: coreclr_create_delegate failed - status: 0x80131522\n", out)
	assert.False(t, rt.Live())
	assert.Equal(t, 1, rt.Shutdowns())
	assert.Zero(t, rt.LoadedLibraries())
}

func TestRunStrictScan(t *testing.T) {
	isolate(t)
	rt := demoRuntime("ok")
	missing := filepath.Join(t.TempDir(), "missing") + string(os.PathSeparator)

	code, out := runCLI(t, rt, "--runtime-dir", missing)
	assert.Equal(t, 0, code, "lenient scan proceeds with an empty list")
	assert.Equal(t, "Result: ok\n", out)

	rt = demoRuntime("ok")
	code, out = runCLI(t, rt, "--runtime-dir", missing, "--strict-scan")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "Error: failed to scan runtime directory "+missing), out)
	assert.Zero(t, rt.LoadedLibraries())
	assert.Empty(t, rt.InitCalls())
}

func TestConfigFilePrecedence(t *testing.T) {
	isolate(t)
	dir := runtimeDir(t)
	rt := clrtest.New()
	rt.RegisterString("Lib", "Lib.Entry", "FromFlag", "flag wins")

	path := filepath.Join(t.TempDir(), "corehost.yaml")
	data := "runtime_dir: " + dir + "\n" +
		"assembly: Lib\n" +
		"type: Lib.Entry\n" +
		"method: FromFile\n" +
		"host_name: filehost\n" +
		"properties:\n  System.GC.Server: \"false\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	code, out := runCLI(t, rt, "--config", path, "--method", "FromFlag")

	require.Equal(t, 0, code, out)
	assert.Equal(t, "Result: flag wins\n", out)
	calls := rt.InitCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "filehost", calls[0].HostName)
	assert.Equal(t, "false", calls[0].Properties["System.GC.Server"])
}

func TestConfigFromEnvironment(t *testing.T) {
	isolate(t)
	rt := demoRuntime("ok")

	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime_dir: "+runtimeDir(t)+"\nhost_name: envhost\n"), 0o600))
	t.Setenv(configEnv, path)

	code, _ := runCLI(t, rt)
	require.Equal(t, 0, code)
	require.Len(t, rt.InitCalls(), 1)
	assert.Equal(t, "envhost", rt.InitCalls()[0].HostName)
}

func TestConfigReservedProperty(t *testing.T) {
	isolate(t)
	rt := demoRuntime("ok")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("properties:\n  APP_PATHS: /elsewhere\n"), 0o600))

	code, out := runCLI(t, rt, "--config", path, "--runtime-dir", runtimeDir(t))
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "Error: "), out)
	assert.Contains(t, out, "APP_PATHS")
	assert.Empty(t, rt.InitCalls())
	assert.Zero(t, rt.LoadedLibraries())
}

func TestMissingExplicitConfig(t *testing.T) {
	isolate(t)
	rt := demoRuntime("ok")

	code, out := runCLI(t, rt, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Error: host config not found")
	assert.Empty(t, rt.Loads())
}

func TestTPACommand(t *testing.T) {
	isolate(t)
	dir := runtimeDir(t, "A.dll", "A.ni.dll", "B.exe", "readme.md")

	code, out := runCLI(t, clrtest.New(), "tpa", strings.TrimSuffix(dir, string(os.PathSeparator)))

	require.Equal(t, 0, code, out)
	assert.Equal(t, dir+"A.ni.dll\n"+dir+"B.exe\n", out)
}

func TestTPACommandMissingDir(t *testing.T) {
	isolate(t)
	missing := filepath.Join(t.TempDir(), "gone")

	code, out := runCLI(t, clrtest.New(), "tpa", missing)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "Error: failed to scan runtime directory"), out)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	code, out := runCLI(t, clrtest.New(), "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "corehost "+clrhost.WrapperVersion()+" ("+clrhost.Commit+")\n", out)
}

func TestRejectsPositionalArgs(t *testing.T) {
	isolate(t)
	rt := demoRuntime("ok")
	code, out := runCLI(t, rt, "extra")
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(out, "Error: "), out)
	assert.Empty(t, rt.Loads())
}

func TestMergeConfig(t *testing.T) {
	base := DefaultConfig()
	merged := mergeConfig(base, Config{
		RuntimeDir: "/opt/dotnet/",
		Method:     "  ",
		StrictScan: true,
		Properties: map[string]string{"k": "v"},
	})

	assert.Equal(t, "/opt/dotnet/", merged.RuntimeDir)
	assert.Equal(t, base.Method, merged.Method, "blank values do not override")
	assert.Equal(t, base.Assembly, merged.Assembly)
	assert.True(t, merged.StrictScan)
	assert.Equal(t, map[string]string{"k": "v"}, merged.Properties)
}

func TestResolveConfigPath(t *testing.T) {
	isolate(t)

	path, ok := resolveConfigPath("")
	assert.False(t, ok, "default path is optional")
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), defaultHostConfigDir, defaultHostConfigName), path)

	t.Setenv(configEnv, "/etc/clrhost.yaml")
	path, ok = resolveConfigPath("")
	assert.True(t, ok)
	assert.Equal(t, "/etc/clrhost.yaml", path)

	path, ok = resolveConfigPath("~/custom.yaml")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), "custom.yaml"), path)
}
