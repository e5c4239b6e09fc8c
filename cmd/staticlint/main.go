// Command staticlint runs the analyzers enforced on this repository.
//
// Usage:
//
//	go run ./cmd/staticlint ./...
//
// Vet passes, ineffassign, nilerr and the sessioncookie analyzer always run.
// Staticcheck analyzers are taken from config.json next to the binary
// ({"Staticcheck": ["SA1000", "SA4006"]}); without the file every SA check runs.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/tinyapp/cmd/staticlint/sessioncookie"
)

const configFileName = `config.json`

type configData struct {
	Staticcheck []string
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "staticlint:", err)
		os.Exit(1)
	}

	multichecker.Main(analyzers(cfg)...)
}

func loadConfig() (configData, error) {
	var cfg configData

	executable, err := os.Executable()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(executable), configFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", configFileName, err)
	}

	return cfg, nil
}

func analyzers(cfg configData) []*analysis.Analyzer {
	result := []*analysis.Analyzer{
		copylock.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		sessioncookie.Analyzer,
	}

	enabled := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}

	for _, check := range staticcheck.Analyzers {
		name := check.Analyzer.Name
		if enabled[name] || (len(enabled) == 0 && strings.HasPrefix(name, "SA")) {
			result = append(result, check.Analyzer)
		}
	}

	return result
}
