package flow

import "github.com/viant/procflow/service/meta"

type Option func(*Loader)

// WithMetaService sets the meta service
func WithMetaService(meta *meta.Service) Option {
	return func(l *Loader) {
		l.metaService = meta
	}
}
