// Package deps checks the external tools the converter shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency the converter relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// commandOutput is swapped in tests to avoid spawning processes.
var commandOutput = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// ListLanguages returns the recognition models the engine has installed.
//
// Tesseract prints a banner line followed by one model code per line; the
// banner is dropped.
func ListLanguages(binary string) ([]string, error) {
	output, err := commandOutput(binary, "--list-langs")
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}

	var langs []string
	for i, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || (i == 0 && strings.Contains(line, "List of")) {
			continue
		}
		langs = append(langs, line)
	}
	return langs, nil
}

// HasLanguage reports whether the engine has the given model installed.
func HasLanguage(binary, model string) (bool, error) {
	langs, err := ListLanguages(binary)
	if err != nil {
		return false, err
	}
	for _, lang := range langs {
		if lang == model {
			return true, nil
		}
	}
	return false, nil
}
