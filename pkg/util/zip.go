package util

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/boyter/gocodewalker"
	"github.com/samber/lo"
)

// ArchiveEpoch is stamped on every entry written by ZipDirectory so that the
// same tree always produces the same bytes.
var ArchiveEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ZipOptions configures which parts of a directory are left out of the archive.
type ZipOptions struct {
	// ExcludeDirectories are exact directory names skipped at any depth
	ExcludeDirectories []string
	// ExcludeFilenamePatterns are filepath.Match patterns tested against base names
	ExcludeFilenamePatterns []string
	// Verbose records every excluded path in ZipStats.ExcludedPaths
	Verbose bool
}

// ZipStats tracks statistics about the zipping operation
type ZipStats struct {
	FilesIncluded int
	FilesExcluded int
	BytesIncluded int64
	BytesExcluded int64
	Entries       []string
	ExcludedPaths []string
}

func (s *ZipStats) addIncluded(name string, bytes int64) {
	s.FilesIncluded++
	s.BytesIncluded += bytes
	s.Entries = append(s.Entries, name)
}

func (s *ZipStats) addExcluded(path string, bytes int64, verbose bool) {
	s.FilesExcluded++
	s.BytesExcluded += bytes
	if verbose {
		s.ExcludedPaths = append(s.ExcludedPaths, path)
	}
}

// ZipEntry describes one file stored in an archive.
type ZipEntry struct {
	Name           string `json:"name"`
	Size           uint64 `json:"size"`
	CompressedSize uint64 `json:"compressed_size"`
}

// ZipDirectory writes every file below srcDir into a deflate archive at
// destZip. Entry names are relative to srcDir with forward slashes, only file
// entries are written, and entries are sorted and stamped with ArchiveEpoch.
func ZipDirectory(srcDir, destZip string, opts *ZipOptions) (*ZipStats, error) {
	if opts == nil {
		opts = &ZipOptions{}
	}

	files, err := walkFiles(srcDir, opts.ExcludeDirectories)
	if err != nil {
		return nil, err
	}

	stats := &ZipStats{}

	zipFile, err := os.Create(destZip)
	if err != nil {
		return nil, err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	for _, location := range files {
		relPath, err := filepath.Rel(srcDir, location)
		if err != nil {
			return stats, err
		}
		relPath = filepath.ToSlash(relPath)

		fileInfo, err := os.Lstat(location)
		if err != nil {
			return stats, err
		}

		if matchesAny(filepath.Base(location), opts.ExcludeFilenamePatterns) {
			stats.addExcluded(relPath, fileInfo.Size(), opts.Verbose)
			continue
		}

		written, err := addZipEntry(zipWriter, location, relPath, fileInfo)
		if err != nil {
			return stats, fmt.Errorf("failed to add %s: %w", relPath, err)
		}
		stats.addIncluded(relPath, written)
	}

	if err := zipWriter.Close(); err != nil {
		return stats, err
	}
	return stats, zipFile.Close()
}

// walkFiles lists every file under root. gocodewalker feeds a channel from its
// own goroutine; the list is collected and sorted before anything is written.
func walkFiles(root string, excludeDirs []string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	fileQueue := make(chan *gocodewalker.File, 256)
	walker := gocodewalker.NewFileWalker(root, fileQueue)
	walker.IncludeHidden = true
	walker.IgnoreGitIgnore = true
	walker.IgnoreIgnoreFile = true
	walker.IgnoreGitModules = true
	walker.ExcludeDirectory = append(walker.ExcludeDirectory, excludeDirs...)
	// Any unreadable path aborts the walk; a partial archive is never written.
	walker.SetErrorHandler(func(err error) bool { return false })

	errChan := make(chan error, 1)
	go func() {
		errChan <- walker.Start()
	}()

	var files []string
	for f := range fileQueue {
		files = append(files, f.Location)
	}

	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("directory walk failed: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func addZipEntry(zipWriter *zip.Writer, location, name string, info os.FileInfo) (int64, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		linkTarget, err := os.Readlink(location)
		if err != nil {
			return 0, err
		}

		hdr := &zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: ArchiveEpoch,
		}
		hdr.SetMode(os.ModeSymlink | 0777)

		w, err := zipWriter.CreateHeader(hdr)
		if err != nil {
			return 0, err
		}
		n, err := w.Write([]byte(linkTarget))
		return int64(n), err
	}

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: ArchiveEpoch,
	}
	hdr.SetMode(info.Mode().Perm())

	w, err := zipWriter.CreateHeader(hdr)
	if err != nil {
		return 0, err
	}

	file, err := os.Open(location)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return io.Copy(w, file)
}

func matchesAny(name string, patterns []string) bool {
	return lo.SomeBy(patterns, func(pattern string) bool {
		matched, err := filepath.Match(pattern, name)
		return err == nil && matched
	})
}

// ListZip returns the file entries of an archive in stored order.
func ListZip(zipPath string) ([]ZipEntry, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	files := lo.Filter(reader.File, func(f *zip.File, _ int) bool {
		return !f.FileInfo().IsDir()
	})
	return lo.Map(files, func(f *zip.File, _ int) ZipEntry {
		return ZipEntry{
			Name:           f.Name,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
		}
	}), nil
}

// ReadZipFile returns the content of a single named entry.
func ReadZipFile(zipPath, name string) ([]byte, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	f, ok := lo.Find(reader.File, func(f *zip.File) bool { return f.Name == name })
	if !ok {
		return nil, fmt.Errorf("%s not found in %s", name, zipPath)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Unzip extracts a zip file to the destination directory.
func Unzip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip file: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		destPath := filepath.Join(destDir, file.Name)

		// zip slip
		if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		if file.Mode()&os.ModeSymlink != 0 {
			fileReader, err := file.Open()
			if err != nil {
				return err
			}
			linkTarget, err := io.ReadAll(fileReader)
			fileReader.Close()
			if err != nil {
				return err
			}
			if err := os.Symlink(string(linkTarget), destPath); err != nil {
				return err
			}
			continue
		}

		mode := file.Mode().Perm()
		if mode == 0 {
			mode = 0644
		}
		destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return err
		}

		fileReader, err := file.Open()
		if err != nil {
			destFile.Close()
			return err
		}

		_, err = io.Copy(destFile, fileReader)
		fileReader.Close()
		destFile.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
