package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const listLangsTimeout = 5 * time.Second

// CheckTesseractLanguage reports whether tesseract has traineddata for lang.
// The tesseract binary itself must already be available.
func CheckTesseractLanguage(ctx context.Context, binary, lang string) Status {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "tesseract"
	}
	status := Status{
		Name:        "Tesseract " + lang,
		Command:     binary,
		Description: "Language data for subtitle OCR",
	}
	langs, err := ListTesseractLanguages(ctx, binary)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	for _, have := range langs {
		if have == lang {
			status.Available = true
			return status
		}
	}
	status.Detail = fmt.Sprintf("traineddata %q not installed", lang)
	return status
}

// ListTesseractLanguages returns the languages reported by --list-langs.
func ListTesseractLanguages(ctx context.Context, binary string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, listLangsTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, "--list-langs") //nolint:gosec
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract --list-langs: %w", err)
	}
	var langs []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// The first line is a header such as `List of available languages in "/usr/share/tessdata/" (3):`.
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		langs = append(langs, line)
	}
	return langs, nil
}
