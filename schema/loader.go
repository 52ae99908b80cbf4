package schema

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	dst "github.com/creastat/dialogstate"
	"gopkg.in/yaml.v3"
)

// file accepts either a bare list of services (the SGD schema.json layout)
// or a mapping with a services key.
type file struct {
	Services []Service `yaml:"services"`
}

// Decode parses service definitions from r. JSON input is accepted since
// JSON is a subset of YAML.
func Decode(r io.Reader) ([]Service, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: parse: %v", dst.ErrSchema, err)
	}

	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	switch doc.Kind {
	case yaml.SequenceNode:
		var services []Service
		if err := doc.Decode(&services); err != nil {
			return nil, fmt.Errorf("%w: decode services: %v", dst.ErrSchema, err)
		}
		return services, nil
	case yaml.MappingNode:
		var f file
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: decode services: %v", dst.ErrSchema, err)
		}
		return f.Services, nil
	default:
		return nil, fmt.Errorf("%w: expected a list of services", dst.ErrSchema)
	}
}

// LoadFile reads one schema file and builds a Registry from it.
func LoadFile(path string) (*Registry, error) {
	services, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Load(services)
}

// LoadDir reads every .json, .yaml and .yml file in dir, in name order, and
// builds one Registry from the union. A service defined twice is an error.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	var all []Service
	for _, p := range paths {
		services, err := readFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, services...)
	}
	return Load(all)
}

func readFile(path string) ([]Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()

	services, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return services, nil
}
