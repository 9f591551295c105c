package models

import "fmt"

const redacted = "[REDACTED]"

// Secret holds a password or key entered by the operator.
// Every formatting path renders it as [REDACTED]; use Reveal to get the value.
type Secret string

// Reveal returns the raw secret. Call it only where the value is sent to the endpoint.
func (s Secret) Reveal() string {
	return string(s)
}

// Empty reports whether no secret was entered.
func (s Secret) Empty() bool {
	return s == ""
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

// Format keeps %s, %v, %q, %x and friends from printing the value.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// MarshalText keeps encoders (JSON, zerolog Interface) from printing the value.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Credentials identify the operator to an upload backend.
//
// Backend interpretation:
//   - form:  HTTP Basic username / password
//   - s3:    access key id / secret access key
//   - azure: storage account name / account key
type Credentials struct {
	User   string
	Secret Secret
}
