package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"comictag/internal/archive"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	comicsDir  string
	server     *httptest.Server
	requests   atomic.Int64
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	return gradientPNG(t, false)
}

func gradientPNG(t *testing.T, inverted bool) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 96))
	for y := range 96 {
		for x := range 64 {
			v := uint8((x*4 + y*2) % 256)
			if inverted {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// setupCLITestEnv starts a fake Comic Vine API and writes a config that
// points at it with all directories inside a temp dir.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("COMICVINE_API_KEY", "")
	env := &cliTestEnv{baseDir: base, comicsDir: filepath.Join(base, "comics")}
	cover := coverPNG(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"OK","status_code":1,"results":[
			{"id":100,"name":"Saga","start_year":"2012","count_of_issues":66,"publisher":{"id":1,"name":"Image"}}]}`)
	})
	mux.HandleFunc("/issues/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"error":"OK","status_code":1,"results":[
			{"id":11,"name":"Chapter One","issue_number":"1","cover_date":"2012-03-01",
			 "volume":{"id":100,"name":"Saga"},"image":{"original_url":%q}}]}`, "http://"+r.Host+"/cover.png")
	})
	mux.HandleFunc("/issue/4000-11/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"OK","status_code":1,"results":{
			"id":11,"name":"Chapter One","issue_number":"1","cover_date":"2012-03-01",
			"description":"<p>The beginning.</p>","volume":{"id":100,"name":"Saga"},
			"person_credits":[{"name":"Brian K. Vaughan","role":"writer"}]}}`)
	})
	mux.HandleFunc("/volume/4050-100/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"OK","status_code":1,"results":{"id":100,"name":"Saga","start_year":"2012","count_of_issues":66,"publisher":{"id":1,"name":"Image"}}}`)
	})
	mux.HandleFunc("/cover.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(cover)
	})
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(env.server.Close)

	env.configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
log_dir = %q
cache_dir = %q
state_dir = %q

[catalog]
api_key = "test"
base_url = %q
requests_per_second = 1000.0

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "logs"), filepath.Join(base, "cache"), filepath.Join(base, "state"), env.server.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := os.MkdirAll(env.comicsDir, 0o755); err != nil {
		t.Fatalf("mkdir comics: %v", err)
	}
	writeCBZ(t, filepath.Join(env.comicsDir, "Saga 001 (2012).cbz"), cover)
	return env
}

func writeCBZ(t *testing.T, path string, cover []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create cbz: %v", err)
	}
	w := zip.NewWriter(f)
	for i, data := range [][]byte{cover, cover} {
		entry, err := w.Create(fmt.Sprintf("page%02d.png", i+1))
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		if _, err := entry.Write(data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "API key set")
	requireContains(t, out, "comicvine "+env.server.URL)
	requireContains(t, out, "catalog.db")

	broken := strings.Replace(readFile(t, env.configPath), "[logging]", "[identifier]\nhash_algorithm = \"md5\"\n\n[logging]", 1)
	if err := os.WriteFile(env.configPath, []byte(broken), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validate to reject an unknown hash algorithm")
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestCatalogCommandsRequireAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	noKey := strings.Replace(readFile(t, env.configPath), `api_key = "test"`, "", 1)
	if err := os.WriteFile(env.configPath, []byte(noKey), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"search", "Saga"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "COMICVINE_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestSearchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"search", "Saga", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Saga")
	requireContains(t, out, "Image")

	out, _, err = runCLI(t, []string{"search", "Batman", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("search json: %v", err)
	}
	requireContains(t, out, "[]")
}

func TestIdentifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.comicsDir, "Saga 001 (2012).cbz")
	out, _, err := runCLI(t, []string{"identify", path}, env.configPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "Outcome: single_good_match")
	requireContains(t, out, "Would tag with issue 11")

	ar, err := archive.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if ar.HasMetadata(archive.StyleComictag) {
		t.Fatal("identify must not write metadata")
	}
}

func TestIdentifyReportsLowConfidenceMatch(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.comicsDir, "Saga 001 (2012).cbz")
	writeCBZ(t, path, gradientPNG(t, true))

	out, _, err := runCLI(t, []string{"identify", path}, env.configPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	requireContains(t, out, "Outcome: single_match_low_cover_confidence")
	requireContains(t, out, "Issue 11 is a low confidence match")
}

func TestAutoTagWritesMetadataAndUsesCache(t *testing.T) {
	env := setupCLITestEnv(t)
	metricsFile := filepath.Join(env.baseDir, "autotag.prom")

	out, _, err := runCLI(t, []string{"autotag", "--dry-run", env.comicsDir}, env.configPath)
	if err != nil {
		t.Fatalf("autotag dry run: %v", err)
	}
	requireContains(t, out, "Would tag")
	afterDryRun := env.requests.Load()

	out, _, err = runCLI(t, []string{"autotag", "--metrics-file", metricsFile, env.comicsDir}, env.configPath)
	if err != nil {
		t.Fatalf("autotag: %v", err)
	}
	requireContains(t, out, "Tagged")

	// search, issue list and cover come from the cache; only issue and volume
	// detail are new.
	if got := env.requests.Load() - afterDryRun; got != 2 {
		t.Fatalf("expected 2 uncached requests, got %d", got)
	}

	ar, err := archive.Open(filepath.Join(env.comicsDir, "Saga 001 (2012).cbz"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	md, err := ar.ReadMetadata(archive.StyleComictag)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if md.Series != "Saga" || md.IssueID != "11" || md.Publisher != "Image" || md.Year != 2012 {
		t.Fatalf("unexpected metadata %+v", md)
	}
	requireContains(t, md.Notes, "Tagged with comictag dev using info from Comic Vine")
	requireContains(t, md.Notes, "[Issue ID 11]")

	metrics, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(metrics), `comictag_autotag_archives_total{bucket="good"} 1`)

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Issues")
	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Catalog cache cleared")
}

func TestCollectArchives(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.cbz", "a.CBZ", "notes.txt", ".hidden.cbz", "sub/c.zip", ".git/d.cbz"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	got, err := collectArchives([]string{dir, filepath.Join(dir, "b.cbz")})
	if err != nil {
		t.Fatalf("collectArchives: %v", err)
	}
	want := []string{filepath.Join(dir, "a.CBZ"), filepath.Join(dir, "b.cbz"), filepath.Join(dir, "sub", "c.zip")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("collectArchives = %v, want %v", got, want)
	}
}
