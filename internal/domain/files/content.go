package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/FileMaster/internal/domain/access"
	"github.com/GriffinCanCode/FileMaster/internal/domain/walker"
)

const (
	// maxRecentErrors is how many ERROR lines the summary keeps.
	maxRecentErrors = 10
	// charsetSample bounds the bytes handed to charset detection.
	charsetSample = 64 * 1024
)

// FileContent is one entry of a get_files_content response. Error and Kind
// are set instead of the content fields when the file could not be read.
type FileContent struct {
	Path      string    `json:"path"`
	Content   string    `json:"content,omitempty"`
	Size      int64     `json:"size"`
	Lines     int       `json:"lines"`
	MIMEType  string    `json:"mime_type,omitempty"`
	Charset   string    `json:"charset,omitempty"`
	Binary    bool      `json:"binary,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
	Modified  time.Time `json:"modified"`
	Error     string    `json:"error,omitempty"`
	Kind      string    `json:"kind,omitempty"`
}

// ErrorLine is an ERROR line found while summarizing.
type ErrorLine struct {
	File     string    `json:"file"`
	Line     string    `json:"line"`
	Modified time.Time `json:"time"`
}

// SizeStats summarizes the sizes of the files that were read.
type SizeStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

// ContentSummary aggregates every successfully read file.
type ContentSummary struct {
	TotalFiles   int            `json:"total_files"`
	TotalSize    int64          `json:"total_size"`
	FileTypes    map[string]int `json:"file_types"`
	LogLevels    map[string]int `json:"log_levels"`
	RecentErrors []ErrorLine    `json:"recent_errors"`
	Sizes        SizeStats      `json:"sizes"`
}

// ContentReport is the result of get_files_content.
type ContentReport struct {
	Files   []FileContent  `json:"files"`
	Summary ContentSummary `json:"summary"`
}

type fileRead struct {
	entry FileContent
	data  []byte
}

// GetFilesContent reads each path independently with bounded concurrency.
// A path that fails validation, policy or I/O yields an entry with Error
// set; the call as a whole only fails for an empty request or a cancelled
// context. Output order matches input order. Content is truncated once the
// combined size exceeds the response budget.
func (s *Service) GetFilesContent(ctx context.Context, call access.Call, paths []string) (*ContentReport, error) {
	if len(paths) == 0 {
		return nil, access.InvalidArgument(call.Operation, "", "at least one path is required")
	}

	reads := make([]fileRead, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(contentWorkers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, data, err := s.readOne(gctx, call, p)
			if err != nil {
				entry = failedEntry(p, err)
			}
			reads[i] = fileRead{entry: entry, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &ContentReport{
		Files:   make([]FileContent, len(reads)),
		Summary: summarize(reads),
	}
	budget := s.contentBudget
	for i, r := range reads {
		entry := r.entry
		if entry.Error == "" && !entry.Binary {
			text := string(r.data)
			if int64(len(text)) > budget {
				text = truncateUTF8(text, int(max(budget, 0)))
				entry.Truncated = true
			}
			budget -= int64(len(text))
			entry.Content = text
		}
		report.Files[i] = entry
	}
	return report, nil
}

// ReadFile returns a single file's content. It backs the files:// resource.
func (s *Service) ReadFile(ctx context.Context, call access.Call, path string) (*FileContent, error) {
	entry, data, err := s.readOne(ctx, call, path)
	if err != nil {
		return nil, err
	}
	if !entry.Binary {
		entry.Content = string(data)
	}
	return &entry, nil
}

func (s *Service) readOne(ctx context.Context, call access.Call, path string) (FileContent, []byte, error) {
	r, err := s.validator.Validate(ctx, call, path)
	if err != nil {
		return FileContent{}, nil, err
	}
	info, err := s.statFile(call, r)
	if err != nil {
		return FileContent{}, nil, err
	}
	if err := s.policy.CheckReadable(ctx, call, r, info.Size()); err != nil {
		return FileContent{}, nil, err
	}

	f, err := access.OpenNoFollow(r.Canonical)
	if err != nil {
		return FileContent{}, nil, s.ioError(call, path, err)
	}
	defer f.Close()

	limit := s.settings.MaxFileSize()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return FileContent{}, nil, s.ioError(call, path, err)
	}
	// The file grew past the ceiling after the size check.
	if int64(len(data)) > limit {
		return FileContent{}, nil, s.policy.CheckReadable(ctx, call, r, int64(len(data)))
	}

	entry := FileContent{
		Path:     path,
		Size:     int64(len(data)),
		Lines:    countLines(data),
		MIMEType: mimetype.Detect(data).String(),
		Binary:   walker.IsBinary(data),
		Modified: info.ModTime(),
	}
	if !entry.Binary && len(data) > 0 {
		entry.Charset = detectCharset(data)
	}
	return entry, data, nil
}

func failedEntry(path string, err error) FileContent {
	entry := FileContent{Path: path, Kind: string(access.KindOf(err))}
	var e *access.Error
	if errors.As(err, &e) {
		entry.Error = e.Public()
	} else {
		entry.Error = access.KindIOFailure.Message()
	}
	return entry
}

func detectCharset(data []byte) string {
	if len(data) > charsetSample {
		data = data[:charsetSample]
	}
	if utf8.Valid(data) {
		return "UTF-8"
	}
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return ""
	}
	return res.Charset
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// summarize builds the directory-analysis summary over every readable text
// file: a line containing ERROR counts as ERROR even when it also mentions
// WARNING or INFO.
func summarize(reads []fileRead) ContentSummary {
	sum := ContentSummary{
		FileTypes:    map[string]int{},
		LogLevels:    map[string]int{"ERROR": 0, "WARNING": 0, "INFO": 0},
		RecentErrors: []ErrorLine{},
	}
	var sizes []float64

	for _, r := range reads {
		if r.entry.Error != "" {
			continue
		}
		sum.TotalFiles++
		sum.TotalSize += r.entry.Size
		sum.FileTypes[strings.ToLower(filepath.Ext(r.entry.Path))]++
		sizes = append(sizes, float64(r.entry.Size))

		if r.entry.Binary {
			continue
		}
		name := filepath.Base(r.entry.Path)
		for line := range strings.Lines(string(r.data)) {
			switch {
			case strings.Contains(line, "ERROR"):
				sum.LogLevels["ERROR"]++
				sum.RecentErrors = append(sum.RecentErrors, ErrorLine{
					File:     name,
					Line:     strings.TrimSpace(line),
					Modified: r.entry.Modified,
				})
			case strings.Contains(line, "WARNING"):
				sum.LogLevels["WARNING"]++
			case strings.Contains(line, "INFO"):
				sum.LogLevels["INFO"]++
			}
		}
	}

	slices.SortStableFunc(sum.RecentErrors, func(a, b ErrorLine) int {
		return b.Modified.Compare(a.Modified)
	})
	if len(sum.RecentErrors) > maxRecentErrors {
		sum.RecentErrors = sum.RecentErrors[:maxRecentErrors]
	}

	sum.Sizes = sizeStats(sizes)
	return sum
}

func sizeStats(sizes []float64) SizeStats {
	switch len(sizes) {
	case 0:
		return SizeStats{}
	case 1:
		return SizeStats{Mean: sizes[0], Median: sizes[0]}
	}
	sorted := slices.Clone(sizes)
	slices.Sort(sorted)
	return SizeStats{
		Mean:   stat.Mean(sorted, nil),
		StdDev: stat.StdDev(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}
