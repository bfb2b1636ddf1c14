package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// inputExtensions are the meter export types the engine can read.
var inputExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// FileInfo describes one discovered file.
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Discovery lists the contents of the working directories.
type Discovery struct {
	inputDir  string
	outputDir string
}

// NewDiscovery creates a discovery over the input and output folders.
func NewDiscovery(inputDir, outputDir string) *Discovery {
	return &Discovery{inputDir: inputDir, outputDir: outputDir}
}

// IsInputFile reports whether the filename carries a readable extension.
func IsInputFile(name string) bool {
	return inputExtensions[strings.ToLower(filepath.Ext(name))]
}

// FindInputFiles lists the readable meter exports in the input folder,
// oldest first so batch runs process uploads in arrival order.
func (d *Discovery) FindInputFiles() ([]FileInfo, error) {
	files, err := listFiles(d.inputDir, func(name string) bool {
		return IsInputFile(name)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// FindOutputFiles lists the generated YAML files, newest first.
func (d *Discovery) FindOutputFiles() ([]FileInfo, error) {
	files, err := listFiles(d.outputDir, func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), ".yaml")
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

func listFiles(dir string, match func(string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}
