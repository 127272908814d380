// Package errs is the error taxonomy shared by the session and the token
// registry. Taxonomy errors are attached as marks, so the original cause
// stays in the chain and errs.Is matches across wrapping.
package errs

import (
	"strings"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
	"github.com/Mohsinsiddi/memefactory/internal/provider"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Taxonomy.
var (
	ErrUserRejected         = errors.New("user rejected")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNetworkSwitchFailed  = errors.New("network switch failed")
	ErrContractNotReady     = errors.New("contract not initialized")
	ErrCreationEventMissing = errors.New("token creation event not found")
	ErrContractRejected     = errors.New("contract rejected transaction")
	ErrTransactionFailed    = errors.New("transaction failed")
	ErrConnectionFailed     = errors.New("connection failed")
	ErrInvalidInput         = errors.New("invalid input")
)

var taxonomy = []error{
	ErrUserRejected, ErrInsufficientFunds, ErrNetworkSwitchFailed,
	ErrContractNotReady, ErrCreationEventMissing, ErrContractRejected,
	ErrTransactionFailed, ErrConnectionFailed, ErrInvalidInput,
}

// ContractRejectedError carries the revert reason returned by the contract.
type ContractRejectedError struct {
	Reason string
	cause  error
}

func (e *ContractRejectedError) Error() string { return e.Reason }

func (e *ContractRejectedError) Unwrap() error { return e.cause }

// Is makes every ContractRejectedError match ErrContractRejected.
func (e *ContractRejectedError) Is(target error) bool { return target == ErrContractRejected }

// Is reports whether err matches target, following marks and wrapping.
func Is(err, target error) bool { return errors.Is(err, target) }

// Mark attaches a taxonomy sentinel to err.
func Mark(err, sentinel error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, sentinel)
}

// Invalid returns an ErrInvalidInput error with a user-facing message.
func Invalid(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}

// Classified reports whether err already carries a taxonomy mark.
func Classified(err error) bool {
	for _, s := range taxonomy {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// Classify maps a provider or node failure on the transaction path onto the
// taxonomy. Already classified errors pass through.
func Classify(err error) error {
	if err == nil || Classified(err) {
		return err
	}
	if code, ok := provider.ErrorCode(err); ok && code == provider.CodeUserRejected {
		return errors.Mark(err, ErrUserRejected)
	}
	if strings.Contains(strings.ToLower(err.Error()), "insufficient funds") {
		return errors.Mark(err, ErrInsufficientFunds)
	}
	if reason, ok := RevertReason(err); ok {
		return &ContractRejectedError{Reason: reason, cause: err}
	}
	return errors.Mark(err, ErrTransactionFailed)
}

// RevertReason extracts a revert reason from a node error, first from the
// ABI-encoded revert data and then from the "execution reverted: x" text.
func RevertReason(err error) (string, bool) {
	var rpcErr *chain.RPCError
	if !errors.As(err, &rpcErr) {
		return "", false
	}
	if rpcErr.Code != 3 && !strings.Contains(rpcErr.Message, "execution reverted") {
		return "", false
	}
	if data, decErr := hexutil.Decode(rpcErr.Data); decErr == nil && len(data) > 0 {
		if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil && reason != "" {
			return reason, true
		}
	}
	if _, reason, found := strings.Cut(rpcErr.Message, "execution reverted: "); found && reason != "" {
		return reason, true
	}
	return "", false
}

// Message renders err as the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rejected *ContractRejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Reason
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	case errors.Is(err, ErrUserRejected):
		return "Transaction rejected by user."
	case errors.Is(err, ErrInsufficientFunds):
		return "Insufficient ETH for gas fees. Please add ETH to your wallet."
	case errors.Is(err, ErrNetworkSwitchFailed):
		return "Failed to switch to the required network"
	case errors.Is(err, ErrContractNotReady):
		return "Contract not initialized"
	case errors.Is(err, ErrCreationEventMissing):
		return "Token creation event not found"
	case errors.Is(err, ErrConnectionFailed):
		return "Failed to connect wallet"
	}
	return "Failed to create token. Please try again."
}

// ConnectMessage renders a wallet connection failure.
func ConnectMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserRejected):
		return "Connection rejected by user"
	case errors.Is(err, ErrNetworkSwitchFailed):
		return "Failed to switch to the required network"
	}
	return "Failed to connect wallet"
}
