package domain

import (
	"fmt"
	"os"
	"path/filepath"
)

// Field is one named scalar value of a form submission.
type Field struct {
	Name  string
	Value string
}

// File is a binary attachment such as a company logo.
type File struct {
	Name string
	Data []byte
}

// ReadFile loads an attachment from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return &File{Name: filepath.Base(path), Data: data}, nil
}

// Draft is a record payload that can be sent as a multipart form.
type Draft interface {
	FormFields() []Field
	// Attachment returns the form field name and file, or a nil file.
	Attachment() (string, *File)
}

// Credentials are the sign-in form values.
type Credentials struct {
	Email    string
	Password string
}
