package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eleven-am/mohami/internal/extract"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

// FromFile reads a local PDF or text file into an unsaved resource. Text
// files become notes titled with their file name.
func FromFile(subjectID, path string) (*Resource, error) {
	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text, err := extract.PDFBytes(data)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		return &Resource{SubjectID: subjectID, Title: name, Content: text, Type: TypePDF}, nil

	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("%s is empty", name)
		}
		return &Resource{SubjectID: subjectID, Title: name, Content: string(data), Type: TypeText}, nil
	}

	return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFile)
}
