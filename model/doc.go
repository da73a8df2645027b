// Package model contains the in-memory representation of flow definitions
// used by the engine.
//
// A flow is typically loaded from a YAML or JSON document into the structures
// defined here and in the `graph` sub-package; runtime state lives in the
// `execution` sub-package and the error taxonomy in `types`.
package model
