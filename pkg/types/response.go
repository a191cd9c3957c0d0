package types

import "github.com/angelmondragon/afrifurn-storefront/pkg/pagination"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ListEnvelope carries a client-side page of a larger result set.
type ListEnvelope[T any] struct {
	Data       []T               `json:"data"`
	Pagination pagination.Window `json:"pagination"`
}
