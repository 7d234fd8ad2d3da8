// Package audit runs the rule registry over Dockerfile text and scores the
// result. A Scanner holds no per-scan state and may be shared by
// concurrent scans.
package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/risk"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/rules"
)

// ErrEmptyInput is returned for blank configuration text, which is rejected
// before any rule runs.
var ErrEmptyInput = errors.New("configuration text is empty, provide a Dockerfile first")

type Scanner struct {
	registry *rules.Registry
	profile  risk.Profile
	log      *zap.SugaredLogger
}

func NewScanner(reg *rules.Registry, profile risk.Profile, log *zap.SugaredLogger) *Scanner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{registry: reg, profile: profile, log: log}
}

func (s *Scanner) Registry() *rules.Registry { return s.registry }
func (s *Scanner) Profile() risk.Profile      { return s.profile }

// Scan evaluates the full, untruncated text.
func (s *Scanner) Scan(text string) (risk.Report, error) {
	if strings.TrimSpace(text) == "" {
		return risk.Report{}, ErrEmptyInput
	}
	return risk.Aggregate(s.registry.Evaluate(text), s.profile), nil
}

// FileReport is the outcome of scanning one file. Err is set instead of
// Report when the file could not be read or was blank.
type FileReport struct {
	Path   string      `json:"path" yaml:"path"`
	Report risk.Report `json:"report" yaml:"report"`
	Err    error       `json:"-" yaml:"-"`
}

func (fr FileReport) Error() string {
	if fr.Err == nil {
		return ""
	}
	return fr.Err.Error()
}

func (s *Scanner) ScanReader(name string, r io.Reader) (FileReport, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return FileReport{Path: name}, fmt.Errorf("read %s: %w", name, err)
	}
	rep, err := s.Scan(string(b))
	return FileReport{Path: name, Report: rep, Err: err}, nil
}

func (s *Scanner) ScanFile(path string) (FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileReport{Path: path}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return s.ScanReader(path, f)
}

// ScanPath scans a single file, or every Dockerfile found under a
// directory. Per-file failures are recorded on the FileReport and do not
// stop the walk.
func (s *Scanner) ScanPath(path string) ([]FileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		fr, err := s.ScanFile(path)
		if err != nil {
			return nil, err
		}
		return []FileReport{fr}, nil
	}

	var out []FileReport
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != path && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsDockerfile(info.Name()) {
			return nil
		}
		s.log.Debugw("scanning dockerfile", "path", p)
		fr, err := s.ScanFile(p)
		if err != nil {
			fr.Err = err
		}
		if fr.Err != nil {
			s.log.Warnw("dockerfile skipped", "path", p, "error", fr.Err)
		}
		out = append(out, fr)
		return nil
	})
	return out, err
}

// IsDockerfile matches Dockerfile, Containerfile, Dockerfile.<suffix> and
// <prefix>.Dockerfile, case-insensitively.
func IsDockerfile(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case lower == "dockerfile", lower == "containerfile":
		return true
	case strings.HasPrefix(lower, "dockerfile."), strings.HasPrefix(lower, "containerfile."):
		return true
	case strings.HasSuffix(lower, ".dockerfile"), strings.HasSuffix(lower, ".containerfile"):
		return true
	}
	return false
}

func skipDir(name string) bool {
	switch name {
	case ".git", "node_modules", "vendor":
		return true
	}
	return false
}
