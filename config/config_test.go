package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/docflow/sheet"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "por", cfg.Defaults.Language)
	assert.Equal(t, "doc_{date}_{counter}", cfg.Defaults.RenamePattern)
	assert.Equal(t, sheet.XLSX, cfg.Defaults.OutputFormat)
	assert.True(t, cfg.Defaults.UseOCR)
	assert.True(t, cfg.Defaults.ExtractTables)
	assert.False(t, cfg.Defaults.RenameFiles)
	assert.Equal(t, 300, cfg.DPI)
}

func TestLoadMergesFilesInOrder(t *testing.T) {
	yml := writeConfig(t, "base.yaml", `
output_dir: /data/out
dpi: 200
defaults:
  language: eng
  rename_files: true
log:
  level: debug
`)
	tml := writeConfig(t, "override.toml", `
dpi = 150
[defaults]
output_format = "csv"
`)

	cfg, err := Load(yml, "", tml)
	require.NoError(t, err)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, 150, cfg.DPI)
	assert.Equal(t, "eng", cfg.Defaults.Language)
	assert.True(t, cfg.Defaults.RenameFiles)
	assert.Equal(t, sheet.CSV, cfg.Defaults.OutputFormat)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "docflow.json", `{"keep_temp_files": true, "defaults": {"use_ocr": false}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.KeepTempFiles)
	assert.False(t, cfg.Defaults.UseOCR)
	assert.Equal(t, "por", cfg.Defaults.Language)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOCFLOW_OUTPUT_DIR", "/env/out")
	t.Setenv("DOCFLOW_LANGUAGE", "spa")
	t.Setenv("DOCFLOW_OUTPUT_FORMAT", "DOCX")
	t.Setenv("DOCFLOW_JPEG_QUALITY", "70")
	t.Setenv("DOCFLOW_EXTRACT_TABLES", "false")

	cfg, err := Load(writeConfig(t, "c.yaml", "output_dir: /file/out\n"))
	require.NoError(t, err)
	assert.Equal(t, "/env/out", cfg.OutputDir)
	assert.Equal(t, "spa", cfg.Defaults.Language)
	assert.Equal(t, sheet.DOCX, cfg.Defaults.OutputFormat)
	assert.Equal(t, 70, cfg.JPEGQuality)
	assert.False(t, cfg.Defaults.ExtractTables)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"format":   "defaults:\n  output_format: pdf\n",
		"language": "defaults:\n  language: Portuguese\n",
		"dpi":      "dpi: 10\n",
		"level":    "log:\n  level: loud\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bad.yaml", content))
			assert.Error(t, err)
		})
	}

	t.Setenv("DOCFLOW_DPI", "high")
	_, err := Load()
	assert.ErrorContains(t, err, "DOCFLOW_DPI")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = Load(writeConfig(t, "docflow.ini", "dpi=1"))
	assert.ErrorContains(t, err, "unknown config format")
}

func TestSaveAndReload(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "/archive"
	cfg.Defaults.Language = "por+eng"
	cfg.Defaults.OutputFormat = sheet.TXT

	for _, name := range []string{"docflow.yaml", "docflow.toml", "docflow.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, cfg.Save(path))
			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestProcessorOptions(t *testing.T) {
	assert.Len(t, Default().ProcessorOptions(), 4)
}
