package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"versecast/internal/distribution"
)

var quotaReasons = map[string]bool{
	"quotaExceeded":       true,
	"uploadLimitExceeded": true,
	"dailyLimitExceeded":  true,
}

// classifyError maps an API failure onto a distribution error kind. The
// structured error payload wins; message matching is the fallback for
// errors that carry no payload.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// A refresh token that was revoked or expired surfaces from the
	// transport as a RetrieveError; retrying cannot fix it.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return unauthorized(err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		if hasQuotaSignature(err.Error()) {
			return &distribution.Error{Kind: distribution.KindQuota, Err: err}
		}
		return err
	}

	reason := ""
	for _, item := range apiErr.Errors {
		if reason == "" {
			reason = item.Reason
		}
		if quotaReasons[item.Reason] {
			reason = item.Reason
			break
		}
	}

	if apiErr.Code == http.StatusUnauthorized {
		return &distribution.Error{
			Kind:   distribution.KindPermanent,
			Code:   apiErr.Code,
			Reason: reason,
			Err:    fmt.Errorf("%w: %w", distribution.ErrUnauthorized, err),
		}
	}

	kind := kindForStatus(apiErr.Code)
	switch {
	case quotaReasons[reason]:
		kind = distribution.KindQuota
	case hasQuotaSignature(apiErr.Message) || hasQuotaSignature(apiErr.Body):
		kind = distribution.KindQuota
	}

	return &distribution.Error{Kind: kind, Code: apiErr.Code, Reason: reason, Err: err}
}

func kindForStatus(code int) distribution.Kind {
	switch code {
	case http.StatusForbidden:
		return distribution.KindQuota
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return distribution.KindTransient
	default:
		return distribution.KindPermanent
	}
}

func hasQuotaSignature(msg string) bool {
	for reason := range quotaReasons {
		if strings.Contains(msg, reason) {
			return true
		}
	}
	return false
}
