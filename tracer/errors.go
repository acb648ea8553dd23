package tracer

import "errors"

// ErrNoTenantFound indicates the collector's tenant listing was empty
// and no tenant id was configured.
var ErrNoTenantFound = errors.New("no tenants found for this API key")
