package crawler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// SeedList is the ordered set of URLs a run will dispatch.
type SeedList struct {
	URLs []string
	// Skipped counts non-blank lines dropped at load time (robots.txt entries
	// and malformed URLs).
	Skipped int
}

// LoadSeedFile reads a newline-delimited seed file.
func LoadSeedFile(path string, logger *zap.Logger) (SeedList, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedList{}, fmt.Errorf("open seed file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && logger != nil {
			logger.Debug("Failed to close seed file", zap.Error(cerr))
		}
	}()
	return ReadSeeds(f, logger)
}

// ReadSeeds parses one absolute URL per line, preserving order. Blank lines and
// lines starting with '#' are ignored; robots.txt URLs and malformed URLs are
// logged and skipped. An input with no usable URL returns ErrEmptySeedList.
func ReadSeeds(r io.Reader, logger *zap.Logger) (SeedList, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var seeds SeedList
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		normalized, err := NormalizeURL(line)
		if err != nil {
			seeds.Skipped++
			logger.Warn("Skipping invalid seed URL", zap.Int("line", lineNo), zap.String("url", line), zap.Error(err))
			continue
		}
		if IsRobotsURL(normalized) {
			seeds.Skipped++
			logger.Debug("Skipping robots.txt seed", zap.String("url", normalized))
			continue
		}
		seeds.URLs = append(seeds.URLs, normalized)
	}
	if err := scanner.Err(); err != nil {
		return SeedList{}, fmt.Errorf("read seeds: %w", err)
	}
	if len(seeds.URLs) == 0 {
		return seeds, ErrEmptySeedList
	}
	return seeds, nil
}
