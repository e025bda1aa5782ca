package delivery

import (
	"errors"
	"strings"

	"socialdl/internal/domain"
)

var (
	tooLargeMarkers = []string{
		"file is too big",
		"file size is too big",
		"request entity too large",
		"too large",
	}
	blockedMarkers = []string{
		"bot was blocked by the user",
		"user is deactivated",
		"bot can't initiate conversation",
	}
	rejectedMarkers = []string{
		"bad request",
		"wrong file",
		"failed to get http url content",
		"photo_invalid_dimensions",
		"wrong type of the web page content",
	}
)

// Classify maps a send error onto a delivery error category
func Classify(err error) *domain.DeliveryError {
	if err == nil {
		return nil
	}

	var de *domain.DeliveryError
	if errors.As(err, &de) {
		return de
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, blockedMarkers):
		return &domain.DeliveryError{Kind: domain.DeliveryBlocked, Err: err}
	case containsAny(msg, tooLargeMarkers):
		return &domain.DeliveryError{Kind: domain.DeliveryTooLarge, Err: err}
	case containsAny(msg, rejectedMarkers):
		return &domain.DeliveryError{Kind: domain.DeliveryRejected, Err: err}
	default:
		return &domain.DeliveryError{Kind: domain.DeliveryUnknown, Err: err}
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
