package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindFilesByPattern finds regular files matching a glob pattern, sorted
// by name
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	if _, err := os.Stat(fullPath); err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	matches, err := filepath.Glob(filepath.Join(fullPath, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	files := make([]FileInfo, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Stat describes a single file for TradingDay
func Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return FileInfo{Path: path, Name: filepath.Base(path), Size: info.Size(), ModTime: info.ModTime()}, nil
}

// DaySource tells where TradingDay found the date
type DaySource string

const (
	DayFromName    DaySource = "filename"
	DayFromModTime DaySource = "mtime"
)

var dayPatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), "2006-01-02"},
	{regexp.MustCompile(`\d{8}`), "20060102"},
}

// TradingDay returns local midnight of the day a raw file holds
func TradingDay(f FileInfo, loc *time.Location) (time.Time, DaySource) {
	stem := Stem(f.Name)
	for _, p := range dayPatterns {
		for _, token := range p.re.FindAllString(stem, -1) {
			if day, err := time.ParseInLocation(p.layout, token, loc); err == nil {
				return day, DayFromName
			}
		}
	}
	mt := f.ModTime.In(loc)
	return time.Date(mt.Year(), mt.Month(), mt.Day(), 0, 0, 0, 0, loc), DayFromModTime
}

// Stem strips the directory and the .gz and data extensions
func Stem(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}
