package handlers

import (
	ledgersvc "github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/internal/app/service/statistics"
	"github.com/faceflowai/ledger/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespConsume wraps ConsumeResult in the standard envelope.
type RespConsume struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ledgersvc.ConsumeResult  `json:"data"`
}

// RespAccount wraps AccountResponse in the standard envelope.
type RespAccount struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    AccountResponse          `json:"data"`
}

// RespCredits wraps CreditsResponse in the standard envelope.
type RespCredits struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CreditsResponse          `json:"data"`
}

// RespCatalog wraps CatalogResponse in the standard envelope.
type RespCatalog struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CatalogResponse          `json:"data"`
}

// RespCheckout wraps CheckoutResponse in the standard envelope.
type RespCheckout struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CheckoutResponse         `json:"data"`
}

// RespScanLedger wraps ScanTransactionsResponse in the standard envelope.
type RespScanLedger struct {
	Code    response.APIResponseCode           `json:"code"`
	Message string                             `json:"message"`
	Data    ledgersvc.ScanTransactionsResponse `json:"data"`
}

// RespStatistics wraps StatisticResponse in the standard envelope.
type RespStatistics struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    statistics.StatisticResponse `json:"data"`
}
