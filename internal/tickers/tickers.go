// Package tickers loads the static list of market tickers to fetch.
package tickers

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a newline-delimited ticker file. Blank lines and lines starting
// with '#' are ignored; duplicates are collapsed, keeping first occurrence
// order.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticker file: %w", err)
	}
	defer f.Close()

	var (
		list []string
		seen = make(map[string]bool)
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		list = append(list, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ticker file: %w", err)
	}

	return list, nil
}
