package main

import (
	"fmt"
	"io"
	"os"

	"github.com/agbanzy/pollingunits/internal/core"
)

// readSource parses the registry at path, or stdin when path is "-".
func readSource(path string, stdin io.Reader) (*core.RecordSet, error) {
	if path == "" {
		return nil, withCode(exitUsage, fmt.Errorf("--file is required"))
	}

	var src io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, withCode(exitSource, fmt.Errorf("open source: %w", err))
		}
		defer f.Close()
		src = f
	}

	records, err := core.ReadRecords(src)
	if err != nil {
		return nil, withCode(exitSource, fmt.Errorf("read %s: %w", path, err))
	}
	return records, nil
}
