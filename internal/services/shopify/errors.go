package shopify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a lookup matches no catalog entry.
var ErrNotFound = errors.New("shopify: not found")

type GraphQLErrorDetail struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

// GraphQLError carries the top-level errors array of a response. The request
// itself was rejected, so retrying may succeed.
type GraphQLError struct {
	Errors []GraphQLErrorDetail
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, d.Message)
	}
	return fmt.Sprintf("GraphQL errors: %s", strings.Join(msgs, "; "))
}

// UserErrorsError is returned when a mutation ran but reported user errors.
type UserErrorsError struct {
	Action string
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		parts = append(parts, ue.String())
	}
	return fmt.Sprintf("shopify %s failed: %s", e.Action, strings.Join(parts, "; "))
}
