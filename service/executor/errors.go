package executor

import "errors"

// ErrNoApprovalService is returned when a step needs approval but no
// approval service was configured
var ErrNoApprovalService = errors.New("approval service was not configured")
