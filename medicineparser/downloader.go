// Package medicineparser provides functionality for downloading and parsing the medicine reference dataset.
package medicineparser

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medishortage-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// readDataset returns the dataset content as UTF-8, from a local path or an http(s) URL
func readDataset(source string) (io.Reader, error) {
	var raw []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		raw, err = downloadDataset(source)
	} else {
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	// Exports from spreadsheets are sometimes latin-1, decode them when they aren't valid UTF-8
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}

	logging.Debug("Dataset is not valid UTF-8, decoding as ISO-8859-1", "source", source)
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)), nil
}

func downloadDataset(url string) ([]byte, error) {
	client := &http.Client{
		Timeout: 5 * time.Minute,
	}

	response, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", url, response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded without errors", url))
	return body, nil
}
