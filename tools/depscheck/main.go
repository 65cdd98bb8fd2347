package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "github.com/Overload1252/wowjudo-lootboxes"

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// forbidden maps domain packages to import prefixes they must not reach.
// The resolver and the scanner stay independent of transport and wiring.
var forbidden = map[string][]string{
	modulePath + "/internal/loot":    {modulePath + "/internal/net", modulePath + "/internal/app", modulePath + "/internal/world", modulePath + "/internal/spawner"},
	modulePath + "/internal/spawner": {modulePath + "/internal/net", modulePath + "/internal/app", modulePath + "/internal/world", modulePath + "/internal/loot"},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./internal/...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	violations, err := check(bytes.NewReader(output))
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func check(r io.Reader) ([]string, error) {
	decoder := json.NewDecoder(r)
	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for owner, prefixes := range forbidden {
			if pkg.ImportPath != owner && !strings.HasPrefix(pkg.ImportPath, owner+"/") {
				continue
			}
			for _, imp := range pkg.Imports {
				for _, prefix := range prefixes {
					if imp == prefix || strings.HasPrefix(imp, prefix+"/") {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}
	sort.Strings(violations)
	return violations, nil
}
