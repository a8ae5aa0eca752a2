package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tvidentify/internal/config"
	"tvidentify/internal/pgs"
	"tvidentify/internal/testsupport"
)

const captionText = "Winter is coming."

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func sampleSUP() *testsupport.PGSStream {
	s := &testsupport.PGSStream{}
	palette := testsupport.WhiteOnTransparent()
	for i := uint32(0); i < 4; i++ {
		start := (2*i + 1) * pgs.ClockRate
		s.Caption(start, uint16(2*i+1), testsupport.TextBitmap(40+int(i), 6), palette...)
		s.Clear(start+pgs.ClockRate, uint16(2*i+2))
	}
	return s
}

// setupCLITestEnv writes stub ffprobe, ffmpeg and tesseract scripts and a
// config file pointing at them.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	fixture := filepath.Join(t.TempDir(), "fixture.sup")
	testsupport.WriteSUP(t, fixture, sampleSUP())
	probeJSON := `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},` +
		`{"index":1,"codec_type":"subtitle","codec_name":"hdmv_pgs_subtitle","tags":{"language":"eng","title":"English"},"disposition":{"forced":0,"hearing_impaired":1}},` +
		`{"index":2,"codec_type":"subtitle","codec_name":"subrip","tags":{"language":"eng"}}],` +
		`"format":{"duration":"1800.0"}}`

	base := []testsupport.ConfigOption{
		testsupport.WithStubScript("ffprobe", `if [ "$1" = "-version" ]; then echo "ffprobe version 6.1"; exit 0; fi
cat <<'JSON'
`+probeJSON+`
JSON`),
		testsupport.WithStubScript("ffmpeg", `if [ "$1" = "-version" ]; then echo "ffmpeg version 6.1"; exit 0; fi
prev=""; out=""; for a in "$@"; do prev="$out"; out="$a"; done; cp "`+fixture+`" "$prev"`),
		testsupport.WithStubScript("tesseract", `case "$1" in
--list-langs) printf 'List of available languages in "/usr/share/tessdata/" (2):\neng\nosd\n'; exit 0;;
--version) echo "tesseract 5.3.4"; exit 0;;
esac
cat >/dev/null
echo "`+captionText+`"`),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	return writeTestConfig(t, cfg)
}

func writeTestConfig(t *testing.T, cfg *config.Config) *cliTestEnv {
	t.Helper()
	baseDir := testsupport.BaseDir(cfg)
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(baseDir, "config.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: baseDir}
}

func (e *cliTestEnv) source(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "media", name)
	testsupport.WriteFile(t, path, 1024)
	return path
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", e.configPath}, args...)...)
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}
