package ship

import (
	"errors"
	"fmt"
)

const (
	ErrUnauthorizedSymbol        = "ERR_UNAUTHORIZED"
	ErrSessionLostSymbol         = "ERR_SESSION_LOST"
	ErrUnresolvedRecipientSymbol = "ERR_UNRESOLVED_RECIPIENT"
	ErrRemoteActionSymbol        = "ERR_REMOTE_ACTION"
	ErrBadResponseSymbol         = "ERR_BAD_RESPONSE"
)

// ProtocolError carries a stable symbol so callers branch on the kind of
// failure instead of matching message text.
type ProtocolError struct {
	Symbol  string
	Message string
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Symbol
	}
	return fmt.Sprintf("%s: %s", e.Symbol, e.Message)
}

func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	if !ok {
		return false
	}
	return e.Symbol == t.Symbol
}

var (
	ErrUnauthorized        = &ProtocolError{Symbol: ErrUnauthorizedSymbol, Message: "unauthorized"}
	ErrSessionLost         = &ProtocolError{Symbol: ErrSessionLostSymbol, Message: "session lost"}
	ErrUnresolvedRecipient = &ProtocolError{Symbol: ErrUnresolvedRecipientSymbol, Message: "unresolved recipient"}
	ErrRemoteAction        = &ProtocolError{Symbol: ErrRemoteActionSymbol, Message: "remote action rejected"}
	ErrBadResponse         = &ProtocolError{Symbol: ErrBadResponseSymbol, Message: "bad response"}
)

func WrapProtocolError(base *ProtocolError, format string, args ...any) error {
	if base == nil {
		return fmt.Errorf(format, args...)
	}
	msg := fmt.Sprintf(format, args...)
	return &ProtocolError{Symbol: base.Symbol, Message: msg}
}

func SymbolOf(err error) string {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Symbol
	}
	return ""
}
