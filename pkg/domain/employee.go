package domain

// Employee is a persisted employee.
type Employee struct {
	ID        ID              `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone,omitempty"`
	CompanyID ID              `json:"company_id,omitempty"`
	Company   *CompanySummary `json:"company,omitempty"`
}

// CompanySummary is the company embedded in employee responses.
type CompanySummary struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// RecordID implements Record.
func (e Employee) RecordID() ID { return e.ID }

// FullName joins first and last name.
func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// CompanyName returns the embedded company's name, or "" if none.
func (e Employee) CompanyName() string {
	if e.Company == nil {
		return ""
	}
	return e.Company.Name
}

// EmployeeDraft is an unsaved employee or the edited fields of an existing one.
type EmployeeDraft struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CompanyID ID
	// ClearCompany sends an empty company_id when CompanyID is unset, so an
	// update detaches the employee from its company instead of keeping it.
	ClearCompany bool
}

// EmployeeDraftFrom prefills a draft for editing.
func EmployeeDraftFrom(e Employee) EmployeeDraft {
	companyID := e.CompanyID
	if companyID.IsZero() && e.Company != nil {
		companyID = e.Company.ID
	}
	return EmployeeDraft{
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		Phone:     e.Phone,
		CompanyID: companyID,
	}
}

// FormFields implements Draft. company_id is omitted when unset unless
// ClearCompany asks for it to be sent empty.
func (d EmployeeDraft) FormFields() []Field {
	fields := []Field{
		{Name: "first_name", Value: d.FirstName},
		{Name: "last_name", Value: d.LastName},
		{Name: "email", Value: d.Email},
		{Name: "phone", Value: d.Phone},
	}
	switch {
	case !d.CompanyID.IsZero():
		fields = append(fields, Field{Name: "company_id", Value: d.CompanyID.String()})
	case d.ClearCompany:
		fields = append(fields, Field{Name: "company_id", Value: ""})
	}
	return fields
}

// Attachment implements Draft. Employees carry no files.
func (d EmployeeDraft) Attachment() (string, *File) {
	return "", nil
}
