package usecase

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pancudaniel7/address-relay-service/internal/core/entity"
	"github.com/pancudaniel7/address-relay-service/internal/pkg/apperr"
)

// Command id prefixes, one per reason a command is sent.
const (
	prefixResubscribe = "resub"
	prefixSubscribe   = "sub"
	prefixPing        = "ping"
)

func newCommand(prefix, method string, addrs []string) CommandDTO {
	var list []string
	if len(addrs) > 0 {
		list = append(make([]string, 0, len(addrs)), addrs...)
	}
	return CommandDTO{
		ID:     prefix + "-" + uuid.NewString(),
		Method: method,
		Params: ParamsDTO{Addresses: list},
	}
}

// ResubscribeCommand carries the full watch set after a (re)connect.
func ResubscribeCommand(addrs []string) CommandDTO {
	return newCommand(prefixResubscribe, MethodSubscribeAddresses, addrs)
}

// SubscribeCommand carries only newly added addresses.
func SubscribeCommand(addrs []string) CommandDTO {
	return newCommand(prefixSubscribe, MethodSubscribeAddresses, addrs)
}

func PingCommand() CommandDTO {
	return newCommand(prefixPing, MethodPing, nil)
}

// EncodeCommand serializes cmd as a single text frame.
func EncodeCommand(cmd CommandDTO) ([]byte, error) {
	return json.Marshal(cmd)
}

// DecodeFrame parses an inbound frame. Frames that are not JSON objects fail
// with a ProtocolDecodeErr.
func DecodeFrame(raw []byte) (*EnvelopeDTO, error) {
	if len(raw) == 0 {
		return nil, apperr.NewProtocolDecodeErr("empty frame", nil)
	}
	var env EnvelopeDTO
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperr.NewProtocolDecodeErr("malformed frame", err)
	}
	return &env, nil
}

// notification extracts the address and tx of an address notification. ok is
// false for any other frame, including a tx without a txid.
func notification(env *EnvelopeDTO) (address string, tx TxDTO, ok bool) {
	if env == nil || env.Data == nil || env.Data.Tx == nil || env.Data.Address == "" {
		return "", TxDTO{}, false
	}
	if env.Data.Tx.TxID == "" {
		return "", TxDTO{}, false
	}
	return env.Data.Address, *env.Data.Tx, true
}

func mapRecord(address string, tx TxDTO, observedAt time.Time) entity.TransactionRecord {
	return entity.TransactionRecord{
		Address:    address,
		TxID:       tx.TxID,
		Value:      float64(tx.Value),
		ObservedAt: observedAt.UTC(),
	}
}

// MarshalRecordJSON is the storage and relay encoding of a record.
func MarshalRecordJSON(rec entity.TransactionRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func UnmarshalRecordJSON(data []byte) (entity.TransactionRecord, error) {
	var rec entity.TransactionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return entity.TransactionRecord{}, err
	}
	return rec, nil
}
