package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

var errNotUTF8 = errors.New("file is not valid UTF-8")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errNotUTF8
	}
	return string(data), nil
}
