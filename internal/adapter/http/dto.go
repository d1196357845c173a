package http

import "github.com/pancudaniel7/address-relay-service/internal/core/entity"

type addressesRequest struct {
	Addresses []string `json:"addresses"`
}

type webhookRequest struct {
	URL string `json:"url"`
}

type subscribeResponse struct {
	Success  bool     `json:"success"`
	Added    []string `json:"added"`
	Watching []string `json:"watching"`
}

type unsubscribeResponse struct {
	Success  bool     `json:"success"`
	Removed  []string `json:"removed"`
	Watching []string `json:"watching"`
}

type listResponse struct {
	Watching []string `json:"watching"`
}

type logsResponse struct {
	Logs []entity.TransactionRecord `json:"logs"`
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Webhook string `json:"webhook"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
