package util

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", fullPath, err)
		}
	}
}

func zipNames(t *testing.T, zipPath string) []string {
	t.Helper()
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestZipDirectoryRelativeNames(t *testing.T) {
	srcDir := filepath.Join(t.TempDir(), "extension")
	writeTree(t, srcDir, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	stats, err := ZipDirectory(srcDir, zipPath, nil)
	if err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}

	names := zipNames(t, zipPath)
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "sub/b.txt" {
		t.Errorf("Expected [a.txt sub/b.txt], got %v", names)
	}
	if stats.FilesIncluded != 2 {
		t.Errorf("Expected 2 files included, got %d", stats.FilesIncluded)
	}
	if stats.BytesIncluded != 2 {
		t.Errorf("Expected 2 bytes included, got %d", stats.BytesIncluded)
	}
}

func TestZipDirectoryIncludesHiddenAndIgnoreFiles(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		".gitignore":    "*.js\n",
		".ignore":       "lang\n",
		".gitmodules":   "[submodule \"lib\"]\n\tpath = lib\n",
		"content.js":    "console.log('content');",
		"lang/en.json":  "{}",
		"lib/api.js":    "export {}",
		".hidden/x.txt": "x",
	})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := ZipDirectory(srcDir, zipPath, nil); err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}

	names := zipNames(t, zipPath)
	expected := []string{".gitignore", ".gitmodules", ".hidden/x.txt", ".ignore", "content.js", "lang/en.json", "lib/api.js"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Entry %d: expected %s, got %s", i, expected[i], names[i])
		}
	}
}

func TestZipDirectoryUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "b",
	})
	sub := filepath.Join(srcDir, "sub")
	if err := os.Chmod(sub, 0); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(sub, 0755) })

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := ZipDirectory(srcDir, zipPath, nil); err == nil {
		t.Fatal("Expected error for unreadable directory, got nil")
	}
}

func TestZipDirectoryExclusions(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"manifest.json":           `{"name": "test", "version": "1.0"}`,
		"background.js":           "console.log('background');",
		"icons/icon.png":          "fake-png-data",
		"node_modules/dep/foo.js": "should be excluded",
		"test.test.js":            "should be excluded",
	})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	stats, err := ZipDirectory(srcDir, zipPath, &ZipOptions{
		ExcludeDirectories:      []string{"node_modules"},
		ExcludeFilenamePatterns: []string{"*.test.js"},
		Verbose:                 true,
	})
	if err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}

	names := zipNames(t, zipPath)
	expected := []string{"background.js", "icons/icon.png", "manifest.json"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	if stats.FilesExcluded != 1 {
		t.Errorf("Expected 1 file excluded by pattern, got %d", stats.FilesExcluded)
	}
	if len(stats.ExcludedPaths) != 1 || stats.ExcludedPaths[0] != "test.test.js" {
		t.Errorf("Unexpected excluded paths: %v", stats.ExcludedPaths)
	}
}

func TestZipDirectoryDeterministic(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"manifest.json":     "{}",
		"popup/popup.html":  "<html></html>",
		"popup/popup.js":    "void 0;",
		"lib/api-client.js": "export {};",
	})

	out := t.TempDir()
	first := filepath.Join(out, "first.zip")
	second := filepath.Join(out, "second.zip")

	if _, err := ZipDirectory(srcDir, first, nil); err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}
	// touch a file so mtimes differ between runs
	if err := os.WriteFile(filepath.Join(srcDir, "manifest.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to rewrite manifest: %v", err)
	}
	if _, err := ZipDirectory(srcDir, second, nil); err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) {
		t.Error("Expected identical archives for identical trees")
	}

	da, err := FileDigest(first)
	if err != nil {
		t.Fatalf("FileDigest failed: %v", err)
	}
	db, _ := FileDigest(second)
	if da != db || len(da) != 16 {
		t.Errorf("Expected equal 16-char digests, got %q and %q", da, db)
	}
}

func TestZipDirectoryMissingSource(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := ZipDirectory(filepath.Join(t.TempDir(), "nope"), zipPath, nil); err == nil {
		t.Error("Expected error for missing source directory")
	}
}

func TestListAndReadZip(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"manifest.json":      `{"version": "2.1.0"}`,
		"content/styles.css": "body{}",
	})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := ZipDirectory(srcDir, zipPath, nil); err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}

	entries, err := ListZip(zipPath)
	if err != nil {
		t.Fatalf("ListZip failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "content/styles.css" || entries[0].Size != 6 {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}

	content, err := ReadZipFile(zipPath, "manifest.json")
	if err != nil {
		t.Fatalf("ReadZipFile failed: %v", err)
	}
	if string(content) != `{"version": "2.1.0"}` {
		t.Errorf("Unexpected manifest content %q", content)
	}

	if _, err := ReadZipFile(zipPath, "missing.js"); err == nil {
		t.Error("Expected error for missing entry")
	}
}

func TestUnzip(t *testing.T) {
	tmpZip := filepath.Join(t.TempDir(), "test-unzip.zip")

	zw, err := os.Create(tmpZip)
	if err != nil {
		t.Fatalf("Failed to open zip for writing: %v", err)
	}
	zipWriter := zip.NewWriter(zw)

	testFiles := map[string]string{
		"file1.txt":        "content of file 1",
		"subdir/file2.txt": "content of file 2",
	}

	if _, err := zipWriter.Create("subdir/"); err != nil {
		t.Fatalf("Failed to create dir entry: %v", err)
	}

	for name, content := range testFiles {
		w, err := zipWriter.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write zip entry %s: %v", name, err)
		}
	}
	zipWriter.Close()
	zw.Close()

	destDir := t.TempDir()
	if err := Unzip(tmpZip, destDir); err != nil {
		t.Fatalf("Unzip failed: %v", err)
	}

	for name, expectedContent := range testFiles {
		content, err := os.ReadFile(filepath.Join(destDir, name))
		if err != nil {
			t.Errorf("Failed to read extracted file %s: %v", name, err)
			continue
		}
		if string(content) != expectedContent {
			t.Errorf("File %s: expected %q, got %q", name, expectedContent, string(content))
		}
	}
}

func TestUnzipSecurityCheck(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "malicious.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}

	zipWriter := zip.NewWriter(zipFile)
	if _, err := zipWriter.Create("../../../etc/passwd"); err != nil {
		t.Fatalf("Failed to create entry: %v", err)
	}
	zipWriter.Close()
	zipFile.Close()

	err = Unzip(zipPath, filepath.Join(t.TempDir(), "extracted"))
	if err == nil {
		t.Fatal("Expected zip slip to be rejected")
	}
}
