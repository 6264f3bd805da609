package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the forum API clients. The forum occasionally
// takes seconds to render a user summary, so the timeout is generous but
// still bounded.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
