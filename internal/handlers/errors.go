package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/example/crowdfund/internal/crowdfund"
	"github.com/example/crowdfund/internal/solana"
	"github.com/example/crowdfund/pkg/jsonutil"
)

var errInvalidAddress = errors.New("invalid campaign address")

// statusFor maps service and program errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidAddress),
		errors.Is(err, crowdfund.ErrInvalidAmount),
		errors.Is(err, crowdfund.ErrNameRequired),
		errors.Is(err, crowdfund.ErrTextTooLong),
		errors.Is(err, crowdfund.ErrTransactionTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, crowdfund.ErrCampaignNotFound),
		errors.Is(err, crowdfund.ErrNotCampaignAccount),
		errors.Is(err, crowdfund.ErrAccountNotInitialized),
		errors.Is(err, crowdfund.ErrAccountOwnedByWrongProgram):
		return http.StatusNotFound
	case errors.Is(err, crowdfund.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, crowdfund.ErrInsufficientFunds),
		errors.Is(err, crowdfund.ErrAccountInUse),
		errors.Is(err, crowdfund.ErrArithmeticOverflow),
		errors.Is(err, crowdfund.ErrInsufficientFeeFunds):
		return http.StatusConflict
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, solana.ErrConfirmTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, err error) {
	jsonutil.Error(w, statusFor(err), err.Error())
}
