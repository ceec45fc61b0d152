package apitest

import (
	"fmt"
	"net/http"
	"strconv"
)

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.companies))
	for id := range s.companies {
		ids = append(ids, id)
	}
	pageIDs, meta := paginate(ids, pageParam(r), s.PageSize)
	data := make([]Company, 0, len(pageIDs))
	for _, id := range pageIDs {
		data = append(data, s.companies[id])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": map[string]any{"pagination": meta}})
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	c, found := s.companies[id]
	s.mu.Unlock()
	if !ok || !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": c})
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	s.saveCompany(w, r, 0)
}

func (s *Server) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	_, found := s.companies[id]
	s.mu.Unlock()
	if !ok || !found {
		notFound(w)
		return
	}
	s.saveCompany(w, r, id)
}

func (s *Server) saveCompany(w http.ResponseWriter, r *http.Request, id int) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "expected multipart form"})
		return
	}
	c := Company{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Website: r.FormValue("website"),
	}
	errs := map[string][]string{}
	if c.Name == "" {
		errs["name"] = []string{"The name field is required."}
	}
	if c.Email == "" {
		errs["email"] = []string{"The email field is required."}
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}
	logo, filename, err := readFile(r, "logo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad logo upload"})
		return
	}

	s.mu.Lock()
	status := http.StatusOK
	if id == 0 {
		s.nextID++
		id = s.nextID
		status = http.StatusCreated
	} else {
		c.Logo = s.companies[id].Logo
	}
	c.ID = id
	if logo != nil {
		s.logos[id] = logo
		c.Logo = fmt.Sprintf("/storage/logos/%d-%s", id, filename)
	}
	s.companies[id] = c
	s.mu.Unlock()

	writeJSON(w, status, map[string]any{"status": true, "message": "Company saved", "data": c})
}

func (s *Server) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	_, found := s.companies[id]
	if found {
		delete(s.companies, id)
		delete(s.logos, id)
	}
	s.mu.Unlock()
	if !ok || !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Company deleted"})
}

// withCompany embeds the company summary the list endpoint returns.
// Caller holds s.mu.
func (s *Server) withCompany(e Employee) Employee {
	if e.CompanyID != nil {
		if c, ok := s.companies[*e.CompanyID]; ok {
			e.Company = &companyStub{ID: c.ID, Name: c.Name}
		}
	}
	return e
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.employees))
	for id := range s.employees {
		ids = append(ids, id)
	}
	pageIDs, meta := paginate(ids, pageParam(r), s.PageSize)
	data := make([]Employee, 0, len(pageIDs))
	for _, id := range pageIDs {
		data = append(data, s.withCompany(s.employees[id]))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": map[string]any{"pagination": meta}})
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	e, found := s.employees[id]
	if found {
		e = s.withCompany(e)
	}
	s.mu.Unlock()
	if !ok || !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": e})
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	s.saveEmployee(w, r, 0)
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	_, found := s.employees[id]
	s.mu.Unlock()
	if !ok || !found {
		notFound(w)
		return
	}
	s.saveEmployee(w, r, id)
}

func (s *Server) saveEmployee(w http.ResponseWriter, r *http.Request, id int) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "expected multipart form"})
		return
	}
	e := Employee{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
		Phone:     r.FormValue("phone"),
	}
	errs := map[string][]string{}
	if e.FirstName == "" {
		errs["first_name"] = []string{"The first name field is required."}
	}
	if e.LastName == "" {
		errs["last_name"] = []string{"The last name field is required."}
	}
	if e.Email == "" {
		errs["email"] = []string{"The email field is required."}
	}
	// PATCH semantics: an absent company_id keeps the stored one, an empty
	// one detaches the employee.
	if _, sent := r.MultipartForm.Value["company_id"]; !sent && id != 0 {
		s.mu.Lock()
		e.CompanyID = s.employees[id].CompanyID
		s.mu.Unlock()
	}
	if raw := r.FormValue("company_id"); raw != "" {
		cid, err := strconv.Atoi(raw)
		if err != nil {
			errs["company_id"] = []string{"The selected company id is invalid."}
		} else {
			s.mu.Lock()
			_, known := s.companies[cid]
			s.mu.Unlock()
			if !known {
				errs["company_id"] = []string{"The selected company id is invalid."}
			}
			e.CompanyID = &cid
		}
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	status := http.StatusOK
	if id == 0 {
		s.nextID++
		id = s.nextID
		status = http.StatusCreated
	}
	e.ID = id
	s.employees[id] = e
	e = s.withCompany(e)
	s.mu.Unlock()

	writeJSON(w, status, map[string]any{"status": true, "message": "Employee saved", "data": e})
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	_, found := s.employees[id]
	if found {
		delete(s.employees, id)
	}
	s.mu.Unlock()
	if !ok || !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Employee deleted"})
}
