package usecase

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// Outbound feed methods.
const (
	MethodSubscribeAddresses = "subscribeAddresses"
	MethodPing               = "ping"
)

// CommandDTO is an outbound feed command.
type CommandDTO struct {
	ID     string    `json:"id"`
	Method string    `json:"method"`
	Params ParamsDTO `json:"params"`
}

// ParamsDTO carries command parameters. Ping sends an empty object.
type ParamsDTO struct {
	Addresses []string `json:"addresses,omitempty"`
}

// EnvelopeDTO is the inbound frame shape. Only address notifications carry
// Data.Tx; everything else (ping replies, subscription acks) decodes with a
// nil Tx and is ignored.
type EnvelopeDTO struct {
	ID   string   `json:"id,omitempty"`
	Data *DataDTO `json:"data,omitempty"`
}

type DataDTO struct {
	Address string `json:"address"`
	Tx      *TxDTO `json:"tx,omitempty"`
}

type TxDTO struct {
	TxID  string    `json:"txid"`
	Value AmountDTO `json:"value"`
}

// AmountDTO accepts the value either as a JSON number or as a quoted number,
// since Blockbook-style feeds serialize satoshi amounts both ways.
type AmountDTO float64

func (a *AmountDTO) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*a = AmountDTO(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = AmountDTO(f)
	return nil
}
