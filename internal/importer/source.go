package importer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// ExtractCSV returns the CSV content of an uploaded file. Plain CSV
// passes through untouched; a zip archive must contain exactly one CSV
// entry, which is extracted.
func ExtractCSV(filename string, content []byte) ([]byte, error) {
	if !strings.EqualFold(path.Ext(filename), ".zip") {
		return content, nil
	}

	archive, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open zip archive: %w", err)}
	}

	var entry *zip.File
	for _, file := range archive.File {
		if file.FileInfo().IsDir() || !strings.EqualFold(path.Ext(file.Name), ".csv") {
			continue
		}
		if entry != nil {
			return nil, &ParseError{Err: fmt.Errorf("zip archive contains more than one csv file")}
		}
		entry = file
	}
	if entry == nil {
		return nil, &ParseError{Err: fmt.Errorf("zip archive contains no csv file")}
	}

	reader, err := entry.Open()
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open zip entry %s: %w", entry.Name, err)}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read zip entry %s: %w", entry.Name, err)}
	}
	return data, nil
}
