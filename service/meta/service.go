// Package meta loads YAML or JSON documents from any afs location and
// decodes them through their JSON field names.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service resolves relative URLs against a base location
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
}

// Load reads URL, expands ${env.KEY} expressions and decodes into target
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	location := s.URL(URL)
	data, err := s.fs.DownloadWithURL(ctx, location, s.options...)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", location, err)
	}
	if err = Decode(location, data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", location, err)
	}
	return nil
}

// Exists returns true if URL exists
func (s *Service) Exists(ctx context.Context, URL string) (bool, error) {
	return s.fs.Exists(ctx, s.URL(URL), s.options...)
}

// List returns document URLs (yaml, yml, json) under URL
func (s *Service) List(ctx context.Context, URL string) ([]string, error) {
	location := s.URL(URL)
	objects, err := s.fs.List(ctx, location, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", location, err)
	}
	var result []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(object.Name())) {
		case ".yaml", ".yml", ".json":
			result = append(result, object.URL())
		}
	}
	return result, nil
}

// URL resolves a relative location against the base URL
func (s *Service) URL(location string) string {
	if location == "" {
		return url.Normalize(s.baseURL, file.Scheme)
	}
	if url.IsRelative(location) && s.baseURL != "" {
		return url.Join(s.baseURL, location)
	}
	return url.Normalize(location, file.Scheme)
}

// Decode decodes YAML or JSON, expanding environment expressions first.
// YAML is bridged through JSON so that json tags drive field mapping.
func Decode(location string, data []byte, target interface{}) error {
	data = []byte(expandEnvExpr(string(data)))
	if strings.EqualFold(path.Ext(location), ".json") {
		return json.Unmarshal(data, target)
	}
	var document interface{}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return err
	}
	encoded, err := json.Marshal(normalize(document))
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, target)
}

func normalize(value interface{}) interface{} {
	switch actual := value.(type) {
	case map[string]interface{}:
		for k, v := range actual {
			actual[k] = normalize(v)
		}
		return actual
	case map[interface{}]interface{}:
		ret := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			ret[fmt.Sprintf("%v", k)] = normalize(v)
		}
		return ret
	case []interface{}:
		for i, v := range actual {
			actual[i] = normalize(v)
		}
		return actual
	}
	return value
}

// New creates a meta service; options are passed to afs calls (e.g. embed FS)
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{fs: fs, baseURL: baseURL, options: options}
}
