package readfile

import (
	"os"
	"strings"
)

func ReadLinesNormalized(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(normalized, "\n"), nil
}

// ReadNormalizedText reads path and returns its full text with "\r\n"
// normalized to "\n", for handing to textbuffer.New as a single string
// rather than pre-split lines.
func ReadNormalizedText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}
