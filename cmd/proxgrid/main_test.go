package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/proxgrid/internal/codec"
	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/model"
	"github.com/verte-zerg/proxgrid/internal/store"
)

type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		db:     filepath.Join(dir, "proxgrid.db"),
	}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectBuiltinLayout(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "inspect", "--no-heatmap")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"qwerty", "32x16", "Threshold", "Busiest cells"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestConfigFileAndFlagsOverride(t *testing.T) {
	env := newTestEnv(t)
	cfg := "[grid]\nwidth = 8\nheight = 4\n"
	if err := os.WriteFile(env.config, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := env.run(t, "inspect", "--no-heatmap")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "8x4") {
		t.Fatalf("expected config grid 8x4, got:\n%s", out)
	}

	out, err = env.run(t, "inspect", "--no-heatmap", "--grid-width", "10")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "10x4") {
		t.Fatalf("expected flag to override grid width, got:\n%s", out)
	}
}

func TestUnknownConfigKeyFails(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.config, []byte("[grid]\ncolumns = 8\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := env.run(t, "inspect"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestInvalidSettings(t *testing.T) {
	env := newTestEnv(t)
	cases := [][]string{
		{"inspect", "--grid-width", "0"},
		{"inspect", "--log-format", "xml"},
		{"inspect", "--log-level", "loud"},
		{"simulate", "--sigma", "-1"},
	}
	for _, args := range cases {
		if _, err := env.run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestLookupReportsHitAndCodes(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "lookup", "50", "75")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, "Hit: q ") {
		t.Fatalf("expected q to be hit, got:\n%s", out)
	}
	// The hit key leads and is repeated when the cell lists it too.
	if !strings.Contains(out, "Codes: q q w") {
		t.Fatalf("expected q, q, w in codes, got:\n%s", out)
	}
	if _, err := env.run(t, "lookup", "x", "1"); err == nil {
		t.Fatalf("expected invalid coordinate error")
	}
}

func TestLookupCodesStartWithHitKey(t *testing.T) {
	file, err := loadLayout("")
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	kb, err := file.Build(defaultGridWidth, defaultGridHeight)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	det := keyboard.NewDetector(0, 0)
	det.SetKeyboard(kb, 0, 0)
	hit := det.DetectHitKey(200, 225)
	if hit == nil || hit.Code() != 's' {
		t.Fatalf("expected hit on s, got %v", hit)
	}
	codes := lookupCodes(kb, hit, 200, 225)
	if len(codes) < 2 || codes[0] != "s" {
		t.Fatalf("expected s followed by nearby keys, got %v", codes)
	}
	for _, c := range codes {
		if c == "shift" || c == "delete" {
			t.Fatalf("expected only printable codes, got %v", codes)
		}
	}
}

func TestLookupSlidingPointerHysteresis(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "lookup", "110", "75")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, "Hit: w ") {
		t.Fatalf("expected w to be hit, got:\n%s", out)
	}

	out, err = env.run(t, "lookup", "110", "75", "--from", "q", "--hysteresis", "20")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, "Hit: q ") || !strings.Contains(out, "Codes: q ") {
		t.Fatalf("expected pointer to stay on q, got:\n%s", out)
	}

	out, err = env.run(t, "lookup", "130", "75", "--from", "q", "--hysteresis", "20")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, "Hit: w ") {
		t.Fatalf("expected pointer to move to w, got:\n%s", out)
	}

	for _, args := range [][]string{
		{"lookup", "110", "75", "--from", "ab"},
		{"lookup", "110", "75", "--from", "7"},
		{"lookup", "110", "75", "--hysteresis", "-1"},
	} {
		if _, err := env.run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestNoCorrectionFlag(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "inspect", "--no-heatmap")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "Touch correction\n") || !strings.Contains(out, "0.05") {
		t.Fatalf("expected correction rows, got:\n%s", out)
	}

	out, err = env.run(t, "inspect", "--no-heatmap", "--no-correction")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "Touch correction: off") {
		t.Fatalf("expected correction off, got:\n%s", out)
	}

	if _, err := env.run(t, "export", "--no-correction"); err != nil {
		t.Fatalf("export: %v", err)
	}
	out, err = env.run(t, "export", "show", "1")
	if err != nil {
		t.Fatalf("export show: %v", err)
	}
	if !strings.Contains(out, "correction  off") {
		t.Fatalf("expected export without correction, got:\n%s", out)
	}
}

func TestExportWritesFileAndHistory(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "out", "qwerty.msgpack")
	out, err := env.run(t, "export", "--out", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Saved as export 1") {
		t.Fatalf("expected export id, got:\n%s", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	payload, err := codec.UnmarshalPayload(data)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if payload.GridWidth != defaultGridWidth || payload.GridHeight != defaultGridHeight {
		t.Fatalf("unexpected grid %dx%d", payload.GridWidth, payload.GridHeight)
	}
	if !payload.HasSweetSpots() {
		t.Fatalf("expected sweet spots from the built-in correction table")
	}

	out, err = env.run(t, "export", "show", "1")
	if err != nil {
		t.Fatalf("export show: %v", err)
	}
	if !strings.Contains(out, "layout      qwerty") || !strings.Contains(out, "correction  on") {
		t.Fatalf("unexpected export summary:\n%s", out)
	}
	if _, err := env.run(t, "export", "show", "42"); err == nil {
		t.Fatalf("expected missing export error")
	}

	out, err = env.run(t, "history", "--for", "qwerty")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Exports") || !strings.Contains(out, "32x16") {
		t.Fatalf("expected export in history, got:\n%s", out)
	}
}

func TestExportFileUsesExportDir(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "export", "--file", "--no-save"); err != nil {
		t.Fatalf("export: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(env.dir, "data", "proxgrid", "exports"))
	if err != nil {
		t.Fatalf("read exports dir: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "qwerty-") {
		t.Fatalf("expected one qwerty export, got %v", entries)
	}
	if _, err := os.Stat(env.db); !os.IsNotExist(err) {
		t.Fatalf("expected no database with --no-save, got %v", err)
	}
}

func TestSimulateSavesRun(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "simulate", "--samples", "200", "--seed", "7")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "Samples") || !strings.Contains(out, "Per-Key") {
		t.Fatalf("unexpected simulate output:\n%s", out)
	}

	st, err := store.Open(env.db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()
	runs, err := st.ListSimulations(context.Background(), model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list simulations: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Result.Samples != 200 || runs[0].Layout != "qwerty" {
		t.Fatalf("unexpected run %+v", runs[0])
	}
}

func TestSimulateWordListWithoutTypeableWords(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "words.txt")
	if err := os.WriteFile(path, []byte("#comment\n123\n"), 0o644); err != nil {
		t.Fatalf("write words: %v", err)
	}
	if _, err := env.run(t, "simulate", "--wordlist", path, "--no-save"); err == nil {
		t.Fatalf("expected error for untypeable word list")
	}
}

func TestLayoutsAndNamedLayout(t *testing.T) {
	env := newTestEnv(t)
	dir := filepath.Join(env.dir, "config", "proxgrid", "layouts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mini := "key_width = 100\nkey_height = 100\n\n[[rows]]\nkeys = [\"a\", \"b\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "mini.toml"), []byte(mini), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	out, err := env.run(t, "layouts")
	if err != nil {
		t.Fatalf("layouts: %v", err)
	}
	if !strings.HasPrefix(out, "mini\t") {
		t.Fatalf("expected mini layout, got %q", out)
	}

	out, err = env.run(t, "inspect", "--no-heatmap", "--layout", "mini")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "mini") {
		t.Fatalf("expected layout name in output, got:\n%s", out)
	}

	if _, err := env.run(t, "inspect", "--layout", "missing"); err == nil {
		t.Fatalf("expected missing layout error")
	}
}

func TestConfigPrint(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "config", "--print")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"[grid]", "[layout]", "[log]", "[simulate]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in template", want)
		}
	}
	if err := os.WriteFile(env.config, []byte(out), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := env.run(t, "inspect", "--no-heatmap"); err != nil {
		t.Fatalf("expected default template to load: %v", err)
	}
}

func TestExportFileName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := exportFileName("qwerty", 3, now); got != "qwerty-3.msgpack" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := exportFileName("qwerty", 0, now); got != "qwerty-20240102-030405.msgpack" {
		t.Fatalf("unexpected name %q", got)
	}
}
