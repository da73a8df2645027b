// Package storage exposes file and object storage (local, mem, cloud URLs
// supported by viant/afs) as an automation integration named "storage".
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/action"
)

// Name is the integration name used in automation step config
const Name = "storage"

// Operations
const (
	OpList   = "list"
	OpRead   = "read"
	OpWrite  = "write"
	OpCopy   = "copy"
	OpDelete = "delete"
)

// Params are the automation params of a storage call
type Params struct {
	Operation string
	URL       string
	// Dest is the copy destination; a directory keeps the source name
	Dest string
	// Content is written by write
	Content   string
	Recursive bool
	PageSize  int
}

// Service is the storage integration
type Service struct {
	fs afs.Service
}

// Name returns integration name
func (s *Service) Name() string {
	return Name
}

// Execute runs the storage operation named by params
func (s *Service) Execute(ctx context.Context, params map[string]interface{}, _ map[string]interface{}) (interface{}, error) {
	input := &Params{}
	if err := action.Decode(params, input); err != nil {
		return nil, err
	}
	if input.URL == "" {
		return nil, fmt.Errorf("storage: url is required")
	}
	switch strings.ToLower(input.Operation) {
	case OpList:
		return s.list(ctx, input)
	case OpRead:
		return s.read(ctx, input)
	case OpWrite:
		if err := s.fs.Upload(ctx, input.URL, 0o644, strings.NewReader(input.Content)); err != nil {
			return nil, fmt.Errorf("storage: failed to write %s: %w", input.URL, err)
		}
		return s.describe(ctx, input.URL)
	case OpCopy:
		return s.copy(ctx, input)
	case OpDelete:
		if err := s.fs.Delete(ctx, input.URL); err != nil {
			return nil, fmt.Errorf("storage: failed to delete %s: %w", input.URL, err)
		}
		return map[string]interface{}{"url": input.URL, "deleted": true}, nil
	}
	return nil, fmt.Errorf("storage: unsupported operation %q", input.Operation)
}

func (s *Service) list(ctx context.Context, input *Params) (interface{}, error) {
	var options []storage.Option
	if input.Recursive {
		options = append(options, option.NewRecursive(true))
	}
	if input.PageSize > 0 {
		options = append(options, option.NewPage(0, input.PageSize))
	}
	objects, err := s.fs.List(ctx, input.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list %s: %w", input.URL, err)
	}
	assets := make([]interface{}, 0, len(objects))
	for _, object := range objects {
		assets = append(assets, asset(object))
	}
	return map[string]interface{}{"url": input.URL, "objects": assets, "count": len(assets)}, nil
}

func (s *Service) read(ctx context.Context, input *Params) (interface{}, error) {
	object, err := s.fs.Object(ctx, input.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to stat %s: %w", input.URL, err)
	}
	if object.IsDir() {
		return nil, fmt.Errorf("storage: cannot read directory %s, use list", input.URL)
	}
	data, err := s.fs.Download(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read %s: %w", input.URL, err)
	}
	ret := asset(object)
	ret["content"] = string(data)
	return ret, nil
}

func (s *Service) copy(ctx context.Context, input *Params) (interface{}, error) {
	if input.Dest == "" {
		return nil, fmt.Errorf("storage: dest is required for copy")
	}
	dest := input.Dest
	if object, err := s.fs.Object(ctx, dest); err == nil && object.IsDir() {
		dest = url.Join(dest, path.Base(url.Path(input.URL)))
	}
	if err := s.fs.Copy(ctx, input.URL, dest); err != nil {
		return nil, fmt.Errorf("storage: failed to copy %s to %s: %w", input.URL, dest, err)
	}
	return s.describe(ctx, dest)
}

func (s *Service) describe(ctx context.Context, URL string) (interface{}, error) {
	object, err := s.fs.Object(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to stat %s: %w", URL, err)
	}
	return asset(object), nil
}

func asset(object storage.Object) map[string]interface{} {
	return map[string]interface{}{
		"url":         object.URL(),
		"name":        object.Name(),
		"isDir":       object.IsDir(),
		"size":        object.Size(),
		"modTime":     object.ModTime(),
		"contentType": ContentType(url.Path(object.URL())),
	}
}

// ContentType guesses the content type of a file from its extension
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".xml":
		return "application/xml"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gz":
		return "application/gzip"
	case ".zip":
		return "application/zip"
	}
	return "application/octet-stream"
}

// New creates the storage integration
func New() *Service {
	return &Service{fs: afs.New()}
}

var _ types.Integration = (*Service)(nil)
