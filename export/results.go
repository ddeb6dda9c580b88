package export

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ResultInfo describes a results file on disk (for listing)
type ResultInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListResults returns the .csv files in dir, newest first
func ListResults(dir string) ([]ResultInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ResultInfo{}, nil
		}
		return nil, err
	}

	results := []ResultInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		results = append(results, ResultInfo{
			Filename: entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Modified.After(results[j].Modified)
	})

	return results, nil
}

// ResultPath joins dir and a listed filename, refusing anything that is not a
// plain file name
func ResultPath(dir, filename string) (string, bool) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", false
	}
	return filepath.Join(dir, filename), true
}
