package apperr

import "fmt"

const (
	invalidArgumentCode = "INVALID_ARGUMENT"
	internalErrorCode   = "INTERNAL_ERROR"
	transportCode       = "TRANSPORT_ERROR"
	protocolDecodeCode  = "PROTOCOL_DECODE_ERROR"
	deliveryCode        = "DELIVERY_ERROR"
	persistenceCode     = "PERSISTENCE_ERROR"
	publishCode         = "PUBLISH_ERROR"
)

type messageCause struct {
	Msg string
	Err error
}

func (e *messageCause) Message() string { return e.Msg }
func (e *messageCause) Cause() error    { return e.Err }
func (e *messageCause) Unwrap() error   { return e.Err }

func formatError(code, msg string, cause error) string {
	if cause != nil {
		return fmt.Sprintf("[%s] %s: %v", code, msg, cause)
	}
	return fmt.Sprintf("[%s] %s", code, msg)
}

// InvalidArgErr rejects malformed management input or configuration.
type InvalidArgErr struct {
	messageCause
}

func NewInvalidArgErr(msg string, cause error) *InvalidArgErr {
	return &InvalidArgErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *InvalidArgErr) Error() string { return formatError(invalidArgumentCode, e.Msg, e.Err) }
func (e *InvalidArgErr) Code() string  { return invalidArgumentCode }

type InternalErr struct {
	messageCause
}

func NewInternalErr(msg string, cause error) *InternalErr {
	return &InternalErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *InternalErr) Error() string { return formatError(internalErrorCode, e.Msg, e.Err) }
func (e *InternalErr) Code() string  { return internalErrorCode }

// TransportErr is a socket-level failure. It is the only error kind that
// moves the feed connection state.
type TransportErr struct {
	messageCause
}

func NewTransportErr(msg string, cause error) *TransportErr {
	return &TransportErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *TransportErr) Error() string { return formatError(transportCode, e.Msg, e.Err) }
func (e *TransportErr) Code() string  { return transportCode }

// ProtocolDecodeErr marks an inbound frame that could not be decoded.
type ProtocolDecodeErr struct {
	messageCause
}

func NewProtocolDecodeErr(msg string, cause error) *ProtocolDecodeErr {
	return &ProtocolDecodeErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *ProtocolDecodeErr) Error() string { return formatError(protocolDecodeCode, e.Msg, e.Err) }
func (e *ProtocolDecodeErr) Code() string  { return protocolDecodeCode }

// DeliveryErr is a failed webhook POST.
type DeliveryErr struct {
	messageCause
}

func NewDeliveryErr(msg string, cause error) *DeliveryErr {
	return &DeliveryErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *DeliveryErr) Error() string { return formatError(deliveryCode, e.Msg, e.Err) }
func (e *DeliveryErr) Code() string  { return deliveryCode }

// PersistenceErr is a failed backend read or write.
type PersistenceErr struct {
	messageCause
}

func NewPersistenceErr(msg string, cause error) *PersistenceErr {
	return &PersistenceErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *PersistenceErr) Error() string { return formatError(persistenceCode, e.Msg, e.Err) }
func (e *PersistenceErr) Code() string  { return persistenceCode }

type PublishErr struct {
	messageCause
}

func NewPublishErr(msg string, cause error) *PublishErr {
	return &PublishErr{messageCause: messageCause{Msg: msg, Err: cause}}
}

func (e *PublishErr) Error() string { return formatError(publishCode, e.Msg, e.Err) }
func (e *PublishErr) Code() string  { return publishCode }
