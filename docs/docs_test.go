package docs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/swaggo/swag"
)

var routerAnnotation = regexp.MustCompile(`(?m)^// @Router\s+(\S+)\s+\[(\w+)\]`)

func TestDocumentCoversEveryAnnotatedRoute(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc failed: %v", err)
	}
	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("registered document is not valid JSON: %v", err)
	}
	if doc.BasePath != "/api/v1" {
		t.Errorf("basePath = %q, want /api/v1", doc.BasePath)
	}

	handlers, err := filepath.Glob("../internal/*/handler.go")
	if err != nil || len(handlers) == 0 {
		t.Fatalf("no handlers found: %v", err)
	}

	annotated := 0
	for _, file := range handlers {
		src, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			annotated++
			path, method := m[1], strings.ToLower(m[2])
			if _, ok := doc.Paths[path][method]; !ok {
				t.Errorf("%s: %s %s is annotated but missing from the document", filepath.Base(filepath.Dir(file)), method, path)
			}
		}
	}

	documented := 0
	for _, ops := range doc.Paths {
		documented += len(ops)
	}
	if documented != annotated {
		t.Errorf("document has %d operations, handlers annotate %d", documented, annotated)
	}
}
