package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// readDocument loads one JSON document from <root>/<dir>/<id>.json.
// A missing file yields (zero, false, nil).
func readDocument[T any](root, dir, id string) (*T, bool, error) {
	filePath := filepath.Clean(path.Join(root, dir, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read %s %s: %w", dir, id, err)
	}

	var doc T

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s %s: %w", dir, id, err)
	}

	return &doc, true, nil
}

// writeDocument stores one JSON document at <root>/<dir>/<id>.json,
// creating the directory as needed.
func writeDocument[T any](root, dir, id string, doc *T) error {
	err := os.MkdirAll(path.Join(root, dir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", dir, id, err)
	}

	return os.WriteFile(path.Join(root, dir, id+".json"), data, 0600)
}

// deleteDocument removes one document file. Deleting a missing document is
// not an error at this layer.
func deleteDocument(root, dir, id string) error {
	err := os.Remove(path.Join(root, dir, id+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", dir, id, err)
	}

	return nil
}

// listDocuments loads every JSON document under <root>/<dir>.
func listDocuments[T any](root, dir string) ([]*T, error) {
	dirFS := os.DirFS(path.Join(root, dir))

	jsonFiles, err := fs.Glob(dirFS, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", dir, err)
	}

	docs := make([]*T, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		id := name[:len(name)-len(".json")]

		doc, ok, err := readDocument[T](root, dir, id)
		if err != nil {
			return nil, err
		}

		if ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}
