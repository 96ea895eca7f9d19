package groundtruth

import (
	"fmt"
	"os"
	"strings"
)

// Load reads the reference transcript from path and trims surrounding
// whitespace. A missing, unreadable or empty file is a configuration
// failure: the caller is expected to abort the run.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read ground truth %s: %w", path, err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("ground truth %s is empty", path)
	}
	return text, nil
}
