package ads

import "fmt"

// UpstreamError wraps a failed Google Ads API call with the operation name
// and the account it targeted. It is terminal for the triggering request;
// nothing in this package retries.
type UpstreamError struct {
	Op         string
	CustomerID string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google ads %s failed for account %s: %s", e.Op, e.CustomerID, e.Message)
	}
	return fmt.Sprintf("google ads %s failed for account %s: %v", e.Op, e.CustomerID, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstreamErr(op, customerID string, err error) *UpstreamError {
	return &UpstreamError{Op: op, CustomerID: customerID, Err: err}
}
