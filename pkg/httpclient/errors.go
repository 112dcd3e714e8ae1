package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/psvit/storefront/pkg/errors"
)

// DownstreamErrorResponse mirrors the standard error envelope returned by the
// hosted backend, used to parse structured error bodies from downstream calls.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError. If the body matches the standard error
// envelope, the code and message are preserved; otherwise a generic error with
// the status and raw body is returned. The response body is fully consumed
// and closed.
func ParseResponseError(resp *http.Response, providerName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", providerName, resp.StatusCode, err)
	}

	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil && downstream.Error != nil {
		return mapDownstreamError(resp.StatusCode, downstream.Error.Code, downstream.Error.Message, providerName)
	}

	return mapDownstreamError(resp.StatusCode, "", string(bodyBytes), providerName)
}

func mapDownstreamError(status int, code, message, providerName string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", providerName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(providerName, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.AlreadyExists(providerName, "resource", message)
	case status >= 500:
		return apperrors.Unavailable(providerName, fmt.Errorf("status %d (%s): %s", status, code, message))
	default:
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}
