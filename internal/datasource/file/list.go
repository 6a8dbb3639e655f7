package file

import (
	"bufio"
	"os"
	"strings"
)

// ReadList reads a text file line by line and returns the non-empty,
// non-comment lines in order. Lines are trimmed; blank lines and lines
// starting with '#' are skipped. Used for required-column lists kept
// next to the data.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
