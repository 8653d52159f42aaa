package rename

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/docflow/fileutil"
)

// Category folders created by OrganizeByType.
const (
	CategoryPDF         = "PDFs"
	CategoryImages      = "Imagens"
	CategoryDocuments   = "Documentos"
	CategorySpreadsheet = "Planilhas"
	CategoryOther       = "Outros"
)

var categories = []struct {
	name string
	exts []string
}{
	{CategoryPDF, []string{".pdf"}},
	{CategoryImages, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif"}},
	{CategoryDocuments, []string{".doc", ".docx", ".txt", ".rtf"}},
	{CategorySpreadsheet, []string{".xls", ".xlsx", ".csv"}},
	{CategoryOther, nil},
}

// Category returns the folder a file name is organized into.
func Category(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, c := range categories {
		for _, e := range c.exts {
			if e == ext {
				return c.name
			}
		}
	}
	return CategoryOther
}

// OrganizeByType moves the regular files directly inside folder into one
// sub-folder per category and returns how many files each received.
func OrganizeByType(folder string) (map[string]int, error) {
	for _, c := range categories {
		if err := os.MkdirAll(filepath.Join(folder, c.name), 0o755); err != nil {
			return nil, err
		}
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	moved := make(map[string]int, len(categories))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		cat := Category(e.Name())
		if err := fileutil.Move(filepath.Join(folder, e.Name()), filepath.Join(folder, cat, e.Name())); err != nil {
			return moved, fmt.Errorf("move %s: %w", e.Name(), err)
		}
		moved[cat]++
	}
	return moved, nil
}

// Duplicate pairs a file with the first file seen with identical content.
type Duplicate struct {
	Path     string
	Original string
	Checksum string
}

// FindDuplicates walks folder recursively and reports every file whose
// content matches a file visited earlier in lexical walk order.
func FindDuplicates(folder string) ([]Duplicate, error) {
	seen := make(map[string]string)
	var dups []Duplicate
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		sum, err := fileutil.Checksum(path)
		if err != nil {
			return err
		}
		if first, ok := seen[sum]; ok {
			dups = append(dups, Duplicate{Path: path, Original: first, Checksum: sum})
			return nil
		}
		seen[sum] = path
		return nil
	})
	return dups, err
}
