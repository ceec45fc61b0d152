// Package apitest runs an in-process fake of the remote company/employee
// REST API for tests. It speaks the same envelopes, pagination metadata,
// bearer auth and _method=PATCH override as the real service.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultPageSize is the number of records per page.
const DefaultPageSize = 10

// Company is the stored company shape.
type Company struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Website string `json:"website"`
	Logo    string `json:"logo,omitempty"`
}

// Employee is the stored employee shape.
type Employee struct {
	ID        int          `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone"`
	CompanyID *int         `json:"company_id"`
	Company   *companyStub `json:"company,omitempty"`
}

type companyStub struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	PageSize int

	mu        sync.Mutex
	users     map[string]string // email -> password
	tokens    map[string]bool
	companies map[int]Company
	employees map[int]Employee
	logos     map[int][]byte
	nextID    int
	requests  []Request
	failNext  *failure
}

type failure struct {
	status  int
	message string
}

// New starts a fake API. Call Close when done.
func New() *Server {
	s := &Server{
		PageSize:  DefaultPageSize,
		users:     map[string]string{},
		tokens:    map[string]bool{},
		companies: map[int]Company{},
		employees: map[int]Employee{},
		logos:     map[int][]byte{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.methodOverride)

	r.Post("/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/logout", s.logout)
		r.Route("/company", func(r chi.Router) {
			r.Get("/", s.listCompanies)
			r.Post("/", s.createCompany)
			r.Get("/{id}", s.getCompany)
			r.Patch("/{id}", s.updateCompany)
			r.Delete("/{id}", s.deleteCompany)
		})
		r.Route("/employee", func(r chi.Router) {
			r.Get("/", s.listEmployees)
			r.Post("/", s.createEmployee)
			r.Get("/{id}", s.getEmployee)
			r.Patch("/{id}", s.updateEmployee)
			r.Delete("/{id}", s.deleteEmployee)
		})
	})
	return r
}

// AddUser registers sign-in credentials.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// IssueToken returns a valid token without going through /login.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := uuid.NewString()
	s.tokens[tok] = true
	return tok
}

// TokenValid reports whether tok is currently accepted.
func (s *Server) TokenValid(tok string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[tok]
}

// SeedCompanies stores n companies named "Company 1".."Company n".
func (s *Server) SeedCompanies(n int) []Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Company, 0, n)
	for i := 0; i < n; i++ {
		s.nextID++
		c := Company{
			ID:    s.nextID,
			Name:  fmt.Sprintf("Company %d", i+1),
			Email: fmt.Sprintf("hello%d@example.com", i+1),
		}
		s.companies[c.ID] = c
		out = append(out, c)
	}
	return out
}

// SeedEmployee stores one employee.
func (s *Server) SeedEmployee(first, last, email string, companyID *int) Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := Employee{ID: s.nextID, FirstName: first, LastName: last, Email: email, CompanyID: companyID}
	s.employees[e.ID] = e
	return e
}

// Logo returns the uploaded logo bytes for a company.
func (s *Server) Logo(companyID int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logos[companyID]
}

// FailNext makes the next authenticated request fail with status.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = &failure{status: status, message: message}
}

// Requests returns the calls seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ResetRequests forgets recorded calls.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// --- middleware ---

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// methodOverride turns POST ?_method=PATCH into PATCH.
func (s *Server) methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if m := strings.ToUpper(r.URL.Query().Get("_method")); m == http.MethodPatch || m == http.MethodPut {
				r.Method = http.MethodPatch
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := s.tokens[tok]
		fail := s.failNext
		s.failNext = nil
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
			return
		}
		if fail != nil {
			writeJSON(w, fail.status, map[string]any{"status": false, "message": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- auth ---

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": false, "message": "expected multipart form"})
		return
	}
	email, password := r.FormValue("email"), r.FormValue("password")

	s.mu.Lock()
	want, known := s.users[email]
	s.mu.Unlock()
	if !known || want != password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": false, "message": "Invalid credentials"})
		return
	}
	tok := s.IssueToken()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "Logged in successfully",
		"data":    map[string]any{"email": email},
		"meta":    map[string]any{"token": tok},
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, tok)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Logged out successfully"})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeValidation(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  errs,
	})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Record not found"})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func pageParam(r *http.Request) int {
	p, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// paginate slices sorted ids and builds Laravel-style meta.
func paginate(ids []int, page, size int) ([]int, map[string]int) {
	sort.Ints(ids)
	total := len(ids)
	last := (total + size - 1) / size
	if last < 1 {
		last = 1
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	meta := map[string]int{"from": 0, "to": 0, "total": total, "last_page": last}
	if end > start {
		meta["from"] = start + 1
		meta["to"] = end
	}
	return ids[start:end], meta
}

func readFile(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer f.Close() //nolint:errcheck
	data, err := io.ReadAll(f)
	return data, hdr.Filename, err
}
