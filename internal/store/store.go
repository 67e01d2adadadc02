// SPDX-License-Identifier: MPL-2.0

package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"csvpilot/internal/issue"
	"csvpilot/internal/platform"
)

// Script file extensions the store recognizes. Anything else in the
// scripts directory is ignored by listings.
var scriptExtensions = []string{".py", ".sh"}

type (
	// FileName is the bare name of a file inside a managed directory.
	// A valid name has no path separators, no traversal components, and
	// is not hidden.
	FileName string

	// InvalidFileNameError is returned when a FileName fails validation.
	// It wraps issue.ErrInvalidInput for errors.Is() compatibility.
	InvalidFileNameError struct {
		Name   FileName
		Reason string
	}

	// FileInfo describes one entry of a directory listing.
	FileInfo struct {
		Name    string    `json:"name"`
		Size    int64     `json:"size"`
		ModTime time.Time `json:"modTime"`
	}

	// Store reads and writes the CSV and script directories.
	Store struct {
		csvDir    string
		scriptDir string
	}
)

// Error implements the error interface.
func (e *InvalidFileNameError) Error() string {
	return fmt.Sprintf("invalid file name %q: %s", string(e.Name), e.Reason)
}

// Unwrap returns issue.ErrInvalidInput so callers can use errors.Is.
func (e *InvalidFileNameError) Unwrap() error { return issue.ErrInvalidInput }

// IsValid returns whether the FileName is safe to resolve inside a
// managed directory, and a list of validation errors if it is not.
func (n FileName) IsValid() (bool, []error) {
	s := string(n)
	switch {
	case strings.TrimSpace(s) == "":
		return false, []error{&InvalidFileNameError{Name: n, Reason: "empty"}}
	case strings.ContainsAny(s, `/\`):
		return false, []error{&InvalidFileNameError{Name: n, Reason: "contains a path separator"}}
	case s == "." || s == ".." || strings.HasPrefix(s, "."):
		return false, []error{&InvalidFileNameError{Name: n, Reason: "hidden or traversal name"}}
	case platform.IsWindowsReservedName(s):
		return false, []error{&InvalidFileNameError{Name: n, Reason: "reserved device name on Windows"}}
	}
	return true, nil
}

// String returns the name as a plain string.
func (n FileName) String() string { return string(n) }

// New creates a Store over the given directories, creating them when
// absent. Both paths are resolved to absolute form.
func New(csvDir, scriptDir string) (*Store, error) {
	absCSV, err := prepareDir(csvDir)
	if err != nil {
		return nil, issue.WrapWithOperation(err, "prepare CSV directory")
	}
	absScript, err := prepareDir(scriptDir)
	if err != nil {
		return nil, issue.WrapWithOperation(err, "prepare scripts directory")
	}
	return &Store{csvDir: absCSV, scriptDir: absScript}, nil
}

func prepareDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// CSVDir returns the absolute path of the CSV directory.
func (s *Store) CSVDir() string { return s.csvDir }

// ScriptDir returns the absolute path of the scripts directory.
func (s *Store) ScriptDir() string { return s.scriptDir }

// CSVPath resolves a CSV file name to an absolute path.
// The file is not required to exist.
func (s *Store) CSVPath(name FileName) (string, error) {
	if valid, errs := name.IsValid(); !valid {
		return "", errs[0]
	}
	return filepath.Join(s.csvDir, string(name)), nil
}

// ScriptPath resolves a script file name to an absolute path.
// The file is not required to exist.
func (s *Store) ScriptPath(name FileName) (string, error) {
	if valid, errs := name.IsValid(); !valid {
		return "", errs[0]
	}
	return filepath.Join(s.scriptDir, string(name)), nil
}

// ListCSVFiles lists the *.csv files in the CSV directory, sorted by name.
func (s *Store) ListCSVFiles() ([]FileInfo, error) {
	return listDir(s.csvDir, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".csv")
	})
}

// ListScriptFiles lists the recognized script files in the scripts
// directory, sorted by name.
func (s *Store) ListScriptFiles() ([]FileInfo, error) {
	return listDir(s.scriptDir, IsScriptName)
}

// IsScriptName reports whether a file name carries a recognized script
// extension.
func IsScriptName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range scriptExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func listDir(dir string, keep func(string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &issue.IOFailureError{Op: "list", Path: dir, Cause: err}
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !keep(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Entry disappeared between listing and stat; skip it.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &issue.IOFailureError{Op: "stat", Path: filepath.Join(dir, entry.Name()), Cause: err}
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ReadCSVFile returns the raw bytes of a CSV file.
func (s *Store) ReadCSVFile(name FileName) ([]byte, error) {
	path, err := s.CSVPath(name)
	if err != nil {
		return nil, err
	}
	return readFile(path, name)
}

// ReadScriptFile returns the raw bytes of a script file.
func (s *Store) ReadScriptFile(name FileName) ([]byte, error) {
	path, err := s.ScriptPath(name)
	if err != nil {
		return nil, err
	}
	return readFile(path, name)
}

func readFile(path string, name FileName) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &issue.NotFoundError{Resource: string(name)}
		}
		return nil, &issue.IOFailureError{Op: "read", Path: path, Cause: err}
	}
	return data, nil
}

// WriteCSVFile creates or overwrites a CSV file.
func (s *Store) WriteCSVFile(name FileName, data []byte) error {
	path, err := s.CSVPath(name)
	if err != nil {
		return err
	}
	return writeFile(path, data, 0o644)
}

// WriteScriptFile creates or overwrites a script file. Scripts are written
// executable so they can also be invoked directly from a shell.
func (s *Store) WriteScriptFile(name FileName, data []byte) error {
	if !IsScriptName(string(name)) {
		return &InvalidFileNameError{Name: name, Reason: "unrecognized script extension"}
	}
	path, err := s.ScriptPath(name)
	if err != nil {
		return err
	}
	return writeFile(path, data, 0o755)
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return &issue.IOFailureError{Op: "write", Path: path, Cause: err}
	}
	return nil
}

// DeleteCSVFile removes a CSV file.
func (s *Store) DeleteCSVFile(name FileName) error {
	path, err := s.CSVPath(name)
	if err != nil {
		return err
	}
	return deleteFile(path, name)
}

// DeleteScriptFile removes a script file.
func (s *Store) DeleteScriptFile(name FileName) error {
	path, err := s.ScriptPath(name)
	if err != nil {
		return err
	}
	return deleteFile(path, name)
}

func deleteFile(path string, name FileName) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &issue.NotFoundError{Resource: string(name)}
		}
		return &issue.IOFailureError{Op: "delete", Path: path, Cause: err}
	}
	return nil
}
