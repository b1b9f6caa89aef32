package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"examguard/batch"
	"examguard/types"
)

// Loader fetches the documents shown by the viewer.
type Loader interface {
	Load() ([]Entry, error)
}

// FileLoader reads result documents from files. A directory contributes
// every results_q*.json file inside it.
type FileLoader struct {
	Paths []string
}

func (f FileLoader) Load() ([]Entry, error) {
	var entries []Entry
	for _, p := range f.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", p, err)
		}
		files := []string{p}
		if info.IsDir() {
			files, err = filepath.Glob(filepath.Join(p, batch.ResultFileName("*")))
			if err != nil {
				return nil, err
			}
		}
		for _, name := range files {
			data, err := os.ReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, err)
			}
			entry, err := ReadEntry(name, data)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// APILoader pulls the newest stored reports from a running API server.
type APILoader struct {
	Client *ReportsClient
	QuizID string
	Limit  int
}

func (a APILoader) Load() ([]Entry, error) {
	records, err := a.Client.ListReports(a.QuizID, a.Limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		report, err := a.Client.GetReport(rec.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Source: "report " + rec.ID, Report: report})
	}
	return entries, nil
}

// ReadEntry decodes either an analysis report or an error document.
func ReadEntry(name string, data []byte) (Entry, error) {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Entry{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if probe.Error != "" {
		var failure batch.ErrorResult
		if err := json.Unmarshal(data, &failure); err != nil {
			return Entry{}, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return Entry{Source: name, Failure: &failure}, nil
	}

	var report types.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return Entry{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return Entry{Source: name, Report: &report}, nil
}
