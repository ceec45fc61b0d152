package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/naveenspark/roster/internal/apitest"
	"github.com/naveenspark/roster/pkg/domain"
)

type harness struct {
	t   *testing.T
	srv *apitest.Server
	dir string
}

// newHarness isolates config and state in a temp dir and points the CLI
// at a fake API.
func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"ROSTER_TOKEN", "ROSTER_SESSION_BACKEND", "ROSTER_TOKEN_KEY", "ROSTER_LOG_LEVEL", "ROSTER_LOG_FORMAT", "ROSTER_LOG_FILE", "ROSTER_API_TIMEOUT"} {
		t.Setenv(k, "")
	}
	t.Setenv("ROSTER_CONFIG", filepath.Join(dir, "absent.yaml"))
	t.Setenv("ROSTER_STATE_DIR", dir)
	t.Setenv("ROSTER_API_URL", srv.URL)
	return &harness{t: t, srv: srv, dir: dir}
}

func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	err := execute(strings.NewReader(stdin), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

// signIn stores a valid token the way a previous login would have.
func (h *harness) signIn() string {
	h.t.Helper()
	tok := h.srv.IssueToken()
	if err := os.WriteFile(filepath.Join(h.dir, "token"), []byte(tok), 0o600); err != nil {
		h.t.Fatal(err)
	}
	return tok
}

func (h *harness) storedToken() string {
	data, err := os.ReadFile(filepath.Join(h.dir, "token"))
	if err != nil {
		return ""
	}
	return string(data)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("", "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "roster dev\n" {
		t.Errorf("version output = %q", out)
	}

	out, _, err = h.run("", "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil || got["version"] != "dev" {
		t.Errorf("json version = %q (err %v)", out, err)
	}
}

func TestLoginStoresToken(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret")

	out, _, err := h.run("secret\n", "login", "--email", "ada@example.com", "--password-stdin")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in successfully") {
		t.Errorf("output = %q", out)
	}
	tok := h.storedToken()
	if tok == "" || !h.srv.TokenValid(tok) {
		t.Errorf("stored token %q should be valid", tok)
	}
	info, err := os.Stat(filepath.Join(h.dir, "token"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ada@example.com", "secret")

	out, _, err := h.run("nope", "login", "--email", "ada@example.com", "--password-stdin", "--json")
	if err == nil {
		t.Fatal("expected an error for bad credentials")
	}
	var res authJSON
	if jerr := json.Unmarshal([]byte(out), &res); jerr != nil {
		t.Fatalf("stdout should be JSON only: %q", out)
	}
	if res.OK || res.Message != "Invalid credentials" || res.Status != 401 {
		t.Errorf("result = %+v", res)
	}
	if h.storedToken() != "" {
		t.Error("rejected login must not store a token")
	}
}

func TestLoginEmptyStdin(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("", "login", "--email", "ada@example.com", "--password-stdin")
	if err == nil {
		t.Fatal("expected an error for empty stdin")
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	tok := h.signIn()

	out, _, err := h.run("", "logout")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Logged out successfully") {
		t.Errorf("output = %q", out)
	}
	if h.storedToken() != "" {
		t.Error("token file should be removed")
	}
	if h.srv.TokenValid(tok) {
		t.Error("server should have revoked the token")
	}

	out, _, err = h.run("", "logout")
	if err != nil || !strings.Contains(out, "Already logged out.") {
		t.Errorf("second logout: out=%q err=%v", out, err)
	}
}

func TestCompanyList(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.srv.SeedCompanies(12)

	out, _, err := h.run("", "company", "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"NAME", "Company 1", "hello10@example.com", "Showing 1 to 10 of 12 results (page 1 of 2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = h.run("", "company", "list", "--page", "2", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var page pageJSON[domain.Company]
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(page.Data) != 2 || page.Pagination.LastPage != 2 || page.Pagination.From != 11 {
		t.Errorf("page 2 = %+v", page)
	}
}

func TestCompanyListRejectsBadPages(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.srv.SeedCompanies(3)

	if _, _, err := h.run("", "company", "list", "--page", "0"); err == nil {
		t.Error("page 0 should be rejected")
	}
	if _, _, err := h.run("", "company", "list", "--page", "5"); err == nil {
		t.Error("page past last_page should be rejected")
	}
}

func TestCompanyListUnauthorized(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("", "company", "list")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCompanyCreateValidatesLocally(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, errOut, err := h.run("", "company", "create", "--email", "a@b.com", "--website", "not-a-url")
	var fe domain.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if fe["name"] != "Name is required" || fe["website"] != "Website must be a valid URL" {
		t.Errorf("field errors = %v", fe)
	}
	if !strings.Contains(errOut, "name: Name is required") {
		t.Errorf("stderr = %q", errOut)
	}
	if n := len(h.srv.Requests()); n != 0 {
		t.Errorf("invalid draft sent %d requests", n)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCompanyCreateGetUpdateDelete(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	logo := filepath.Join(h.dir, "logo.png")
	writePNG(t, logo, 120, 120)

	out, _, err := h.run("", "company", "create", "--json",
		"--name", "Acme", "--email", "hi@acme.test", "--website", "https://acme.test", "--logo", logo)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created domain.Company
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("create output: %v\n%s", err, out)
	}
	if created.ID.IsZero() || created.Logo == "" {
		t.Fatalf("created = %+v", created)
	}

	out, _, err = h.run("", "company", "get", created.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Acme") || !strings.Contains(out, h.srv.URL+"/storage/logos/") {
		t.Errorf("get output:\n%s", out)
	}

	out, _, err = h.run("", "company", "update", created.ID.String(), "--name", "Acme Corp", "--json")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var updated domain.Company
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Acme Corp" || updated.Email != "hi@acme.test" || updated.Website != "https://acme.test" {
		t.Errorf("unset flags should keep their values: %+v", updated)
	}

	out, _, err = h.run("", "company", "delete", created.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if out != fmt.Sprintf("Deleted company %s\n", created.ID) {
		t.Errorf("delete output = %q", out)
	}
	if _, _, err := h.run("", "company", "get", created.ID.String()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete: %v, want ErrNotFound", err)
	}
}

func TestCompanyCreateSmallLogo(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	logo := filepath.Join(h.dir, "tiny.png")
	writePNG(t, logo, 20, 20)

	_, _, err := h.run("", "company", "create", "--name", "Acme", "--email", "hi@acme.test", "--logo", logo)
	var fe domain.FieldErrors
	if !errors.As(err, &fe) || fe["logo"] != "Logo must be at least 100x100 pixels" {
		t.Errorf("err = %v", err)
	}
}

func TestEmployeeCreateWithCompany(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	companies := h.srv.SeedCompanies(1)

	_, _, err := h.run("", "employee", "create",
		"--first-name", "Grace", "--last-name", "Hopper", "--email", "grace@example.com",
		"--company-id", fmt.Sprint(companies[0].ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, _, err := h.run("", "employee", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Grace Hopper") || !strings.Contains(out, "Company 1") {
		t.Errorf("list output:\n%s", out)
	}
}

func TestEmployeeUpdateCompany(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	companies := h.srv.SeedCompanies(1)
	cid := fmt.Sprint(companies[0].ID)

	out, _, err := h.run("", "employee", "create", "--json",
		"--first-name", "Grace", "--last-name", "Hopper", "--email", "grace@example.com", "--company-id", cid)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var e domain.Employee
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatal(err)
	}

	out, _, err = h.run("", "employee", "update", e.ID.String(), "--phone", "555", "--json")
	if err != nil {
		t.Fatalf("update phone: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatal(err)
	}
	if e.CompanyName() != "Company 1" || e.Phone != "555" {
		t.Errorf("unset --company-id should keep the company: %+v", e)
	}

	out, _, err = h.run("", "employee", "update", e.ID.String(), "--company-id", "", "--json")
	if err != nil {
		t.Fatalf("clear company: %v", err)
	}
	e = domain.Employee{}
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatal(err)
	}
	if e.CompanyName() != "" || !e.CompanyID.IsZero() {
		t.Errorf(`--company-id "" should remove the company: %+v`, e)
	}
}

func TestEmployeeCreateValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	_, _, err := h.run("", "employee", "create", "--email", "x@example.com")
	var fe domain.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if fe["first_name"] != "first name is required" || fe["last_name"] != "last name is required" {
		t.Errorf("field errors = %v", fe)
	}
}

func TestTokenEnvOverride(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedCompanies(1)
	t.Setenv("ROSTER_TOKEN", h.srv.IssueToken())

	if _, _, err := h.run("", "company", "list"); err != nil {
		t.Fatalf("list with ROSTER_TOKEN: %v", err)
	}
	if h.storedToken() != "" {
		t.Error("env token must not be written to disk")
	}
}

func TestBoltSessionBackend(t *testing.T) {
	h := newHarness(t)
	t.Setenv("ROSTER_SESSION_BACKEND", "bolt")
	h.srv.AddUser("ada@example.com", "secret")
	h.srv.SeedCompanies(1)

	if _, _, err := h.run("secret\n", "login", "--email", "ada@example.com", "--password-stdin"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "session.db")); err != nil {
		t.Fatalf("bolt database not created: %v", err)
	}
	if h.storedToken() != "" {
		t.Error("bolt backend should not write the token file")
	}
	if _, _, err := h.run("", "company", "list"); err != nil {
		t.Errorf("list after bolt login: %v", err)
	}
	if _, _, err := h.run("", "logout"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := h.run("", "company", "list"); err == nil {
		t.Error("list after logout should fail")
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"secret\n", "secret", false},
		{"secret\r\nmore\n", "secret", false},
		{"no-newline", "no-newline", false},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := readLine(strings.NewReader(tt.in))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readLine(%q) = %q, %v", tt.in, got, err)
		}
	}
}
