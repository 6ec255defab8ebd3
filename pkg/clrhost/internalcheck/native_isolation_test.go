package internalcheck

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/coinbase/clrhost-go"

var nativeImports = map[string]bool{
	"C":                            true,
	"github.com/ebitengine/purego": true,
	"golang.org/x/sys/windows":     true,
	"golang.org/x/sys/unix":        true,
	"plugin":                       true,
	"syscall":                      true,
}

var nativeAllowed = map[string]bool{
	modulePath + "/internal/dynlib": true,
}

func TestNativeLoaderIsolation(t *testing.T) {
	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedImports,
		Tests: true,
	}

	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatalf("no packages loaded for %s", modulePath)
	}

	var findings []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			t.Logf("%s: %v", pkg.PkgPath, e)
		}
		if nativeAllowed[pkg.PkgPath] {
			continue
		}
		for path := range pkg.Imports {
			if nativeImports[path] {
				findings = append(findings, fmt.Sprintf("%s imports %s", pkg.ID, path))
			}
		}
	}

	if len(findings) > 0 {
		sort.Strings(findings)
		t.Fatalf("native loader APIs must stay in internal/dynlib:\n%s", strings.Join(findings, "\n"))
	}
}
