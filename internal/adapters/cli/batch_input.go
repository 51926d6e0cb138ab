package cli

import (
	"bufio"
	"os"
	"strings"

	"github.com/devbush/vid2slides/internal/domain"
)

// ParseInputFile reads a file containing video URLs or paths, one per line.
// Blank lines and lines starting with # are ignored.
// Returns the locators of the lines that parse as a source.
func ParseInputFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var locators []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		src, err := domain.ParseSourceInput(line)
		if err != nil {
			// Skip invalid lines
			continue
		}

		locators = append(locators, src.Locator)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return locators, nil
}

// CollectInputs combines CLI arguments and file input, deduplicating.
// Args are processed first, then file entries.
// Returns unique locators in order of first appearance.
func CollectInputs(args []string, filePath string) ([]string, error) {
	seen := make(map[string]bool)
	var locators []string

	add := func(loc string) {
		if !seen[loc] {
			seen[loc] = true
			locators = append(locators, loc)
		}
	}

	// Process CLI args first
	for _, arg := range args {
		src, err := domain.ParseSourceInput(arg)
		if err != nil {
			continue
		}
		add(src.Locator)
	}

	// Process file if provided
	if filePath != "" {
		fileLocators, err := ParseInputFile(filePath)
		if err != nil {
			return nil, err
		}
		for _, loc := range fileLocators {
			add(loc)
		}
	}

	return locators, nil
}
