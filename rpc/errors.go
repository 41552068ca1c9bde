package rpc

import (
	"errors"

	"hashupcore/native/license"
	"hashupcore/native/store"
	"hashupcore/native/token"
)

// failureNames maps engine sentinel errors to the stable reason names exposed
// in the JSON-RPC error data field. Callers branch on the name, not on the
// human-readable message.
var failureNames = []struct {
	err  error
	name string
}{
	{license.ErrNotAdmin, "NotAdmin"},
	{license.ErrNotOwner, "NotOwner"},
	{license.ErrNotCreator, "NotCreator"},
	{license.ErrInvalidFee, "InvalidFee"},
	{license.ErrSaleClosed, "SaleClosed"},
	{license.ErrInsufficientBalance, "InsufficientBalance"},
	{license.ErrInsufficientAllowance, "InsufficientAllowance"},
	{license.ErrZeroAddressRecipient, "ZeroAddressRecipient"},
	{license.ErrZeroAddressSender, "ZeroAddressSender"},
	{license.ErrUnknownLicense, "UnknownLicense"},
	{token.ErrInsufficientBalance, "InsufficientBalance"},
	{token.ErrInsufficientAllowance, "InsufficientAllowance"},
	{token.ErrZeroAddressRecipient, "ZeroAddressRecipient"},
	{token.ErrZeroAddressSender, "ZeroAddressSender"},
	{token.ErrUnknownToken, "UnknownToken"},
	{store.ErrNotOwner, "NotOwner"},
	{store.ErrNotLicenseCreator, "NotLicenseCreator"},
	{store.ErrFeeLimit, "FeeLimitExceeded"},
	{store.ErrAlreadyListed, "SaleAlreadyListed"},
	{store.ErrNotWhitelisted, "NotWhitelisted"},
	{store.ErrNotListed, "NotListed"},
	{store.ErrSoldOut, "SaleSoldOut"},
	{store.ErrNoPaymentToken, "PaymentTokenNotConfigured"},
	{store.ErrPaused, "StorePaused"},
}

func classifyFailure(err error) string {
	for _, entry := range failureNames {
		if errors.Is(err, entry.err) {
			return entry.name
		}
	}
	return ""
}
