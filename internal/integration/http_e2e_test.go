//go:build integration || !unit

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "reviewpulse/internal/adapters/http_server"
	"reviewpulse/internal/adapters/platform"
	redisad "reviewpulse/internal/adapters/redis"
	"reviewpulse/internal/analysis"
	"reviewpulse/internal/app"
	mysqlrepo "reviewpulse/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviewpulse",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reviewpulse")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// newTestServer wires the real stack (MySQL, redis, simulated source,
// deterministic engine) behind the production router.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	scorer := analysis.NewScorer(nil)
	synth := analysis.NewSynthesizer(nil)
	src := platform.NewSimulated()

	h := &httpserver.Handlers{
		Accounts: app.NewAccountService(repo, cache),
		Scan:     app.NewScanService(src, repo, cache, scorer),
		Analysis: app.NewAnalysisService(repo, cache, synth, 10*time.Minute),
	}
	srv := httpserver.New()
	srv.MountHandlers(h)

	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func decode(t *testing.T, res *http.Response, dst any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// ---------- the test ----------

func TestHTTP_EndToEnd_ScanThenAnalysis(t *testing.T) {
	ts := newTestServer(t)

	// Create account
	res := postJSON(t, ts.URL+"/v1/accounts", map[string]string{
		"platform":    "facebook",
		"accountName": "Acme Coffee",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d", res.StatusCode)
	}
	var acct struct {
		ID int64 `json:"id"`
	}
	decode(t, res, &acct)
	if acct.ID == 0 {
		t.Fatalf("missing account id")
	}

	// Analysis before any scan: explicit no-data signal, not an error
	res, err := http.Get(fmt.Sprintf("%s/v1/accounts/%d/analysis", ts.URL, acct.ID))
	if err != nil {
		t.Fatalf("GET analysis: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("pre-scan analysis status %d", res.StatusCode)
	}
	var noData struct {
		NoData  bool   `json:"noData"`
		Message string `json:"message"`
	}
	decode(t, res, &noData)
	if !noData.NoData || noData.Message == "" {
		t.Fatalf("expected noData body, got %+v", noData)
	}

	// Scan pulls the simulated facebook reviews
	res = postJSON(t, fmt.Sprintf("%s/v1/accounts/%d/scan", ts.URL, acct.ID), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("scan status %d", res.StatusCode)
	}
	var scan struct {
		Success     bool `json:"success"`
		ReviewCount int  `json:"reviewCount"`
	}
	decode(t, res, &scan)
	if !scan.Success || scan.ReviewCount == 0 {
		t.Fatalf("unexpected scan result: %+v", scan)
	}

	// Analysis now returns a full snapshot with an ETag
	res, err = http.Get(fmt.Sprintf("%s/v1/accounts/%d/analysis", ts.URL, acct.ID))
	if err != nil {
		t.Fatalf("GET analysis: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analysis status %d", res.StatusCode)
	}
	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag on analysis response")
	}
	var body struct {
		Success  bool `json:"success"`
		Analysis struct {
			ID               int64    `json:"id"`
			OverallSentiment float64  `json:"overallSentiment"`
			ReviewCount      int      `json:"reviewCount"`
			TopKeywords      []string `json:"topKeywords"`
			KeyInsights      []string `json:"keyInsights"`
			Summary          string   `json:"summary"`
		} `json:"analysis"`
	}
	decode(t, res, &body)
	if !body.Success || body.Analysis.ID == 0 {
		t.Fatalf("unexpected analysis body: %+v", body)
	}
	if body.Analysis.ReviewCount != scan.ReviewCount {
		t.Fatalf("review count %d, scanned %d", body.Analysis.ReviewCount, scan.ReviewCount)
	}
	if body.Analysis.Summary == "" || len(body.Analysis.KeyInsights) < 3 {
		t.Fatalf("incomplete insights: %+v", body.Analysis)
	}
	if len(body.Analysis.TopKeywords) == 0 {
		t.Fatalf("expected aggregated keywords")
	}

	// Conditional re-fetch: same snapshot, 304
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/accounts/%d/analysis", ts.URL, acct.ID), nil)
	req.Header.Set("If-None-Match", etag)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", res.StatusCode)
	}

	// Stored reviews are listable, scored, and keyworded
	res, err = http.Get(fmt.Sprintf("%s/v1/accounts/%d/reviews?limit=50", ts.URL, acct.ID))
	if err != nil {
		t.Fatalf("GET reviews: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reviews status %d", res.StatusCode)
	}
	var reviews struct {
		Reviews []struct {
			Text      string   `json:"text"`
			Sentiment float64  `json:"sentiment"`
			Keywords  []string `json:"keywords"`
		} `json:"reviews"`
	}
	decode(t, res, &reviews)
	if len(reviews.Reviews) != scan.ReviewCount {
		t.Fatalf("listed %d reviews, scanned %d", len(reviews.Reviews), scan.ReviewCount)
	}
	for _, rv := range reviews.Reviews {
		if rv.Text == "" {
			t.Fatalf("empty review text in listing")
		}
	}

	// Unknown platform is rejected up front
	res = postJSON(t, ts.URL+"/v1/accounts", map[string]string{
		"platform":    "myspace",
		"accountName": "Nope",
	})
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown platform, got %d", res.StatusCode)
	}
}
