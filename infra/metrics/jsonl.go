package metrics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	coremetrics "github.com/kilianp07/fleetload/core/metrics"
)

// JSONLSink appends day summaries to a JSON lines file with size based
// rotation.
type JSONLSink struct {
	out  *lumberjack.Logger
	path string
}

// NewJSONLSink creates the sink. Sizes are in megabytes and ages in days;
// zero keeps the lumberjack defaults.
func NewJSONLSink(path string, maxSizeMB, maxBackups, maxAgeDays int) (*JSONLSink, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonl sink: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &JSONLSink{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		},
		path: path,
	}, nil
}

// RecordDay writes the summary as one line.
func (s *JSONLSink) RecordDay(res coremetrics.DayResult) error {
	return json.NewEncoder(s.out).Encode(res)
}

// Close closes the current file.
func (s *JSONLSink) Close() { _ = s.out.Close() }

// ReadDays reads the summaries of path and of its rotated backups, oldest
// file first. Lines that do not decode are skipped.
func ReadDays(path string) ([]coremetrics.DayResult, error) {
	ext := filepath.Ext(path)
	backups, err := filepath.Glob(strings.TrimSuffix(path, ext) + "-*" + ext)
	if err != nil {
		return nil, err
	}
	// backup names embed a sortable timestamp
	sort.Strings(backups)
	var res []coremetrics.DayResult
	for _, f := range append(backups, path) {
		file, err := os.Open(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var d coremetrics.DayResult
			if err := json.Unmarshal(scanner.Bytes(), &d); err != nil {
				continue
			}
			res = append(res, d)
		}
		_ = file.Close()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return res, nil
}
