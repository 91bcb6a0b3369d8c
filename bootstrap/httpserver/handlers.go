// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/orbs-network/scribe/log"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
	"net/http"
	"strconv"
	"time"
)

type productResponse struct {
	protocol.Product
	StatusLabel string    `json:"statusLabel"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CanTransfer bool      `json:"canTransfer"`
	CanReceive  bool      `json:"canReceive"`
}

type receiptResponse struct {
	TxHash      common.Hash `json:"txHash"`
	BlockNumber uint64      `json:"blockNumber"`
	GasUsed     uint64      `json:"gasUsed"`
}

type actionResponse struct {
	Receipt *receiptResponse   `json:"receipt"`
	Session *registry.Snapshot `json:"session"`
	Warning string             `json:"warning,omitempty"`
}

type historyResponse struct {
	ProductId uint64                            `json:"productId"`
	Entries   []*registry.FormattedHistoryEntry `json:"entries"`
}

type transferBody struct {
	Recipient string `json:"recipient"`
}

func toProductResponses(snapshot *registry.Snapshot) []*productResponse {
	out := make([]*productResponse, 0, len(snapshot.Products))
	for i := range snapshot.Products {
		product := &snapshot.Products[i]
		canTransfer, canReceive := registry.ProductActions(snapshot, product)
		out = append(out, &productResponse{
			Product:     *product,
			StatusLabel: registry.StatusLabel(int64(product.Status)),
			UpdatedAt:   product.Time(),
			CanTransfer: canTransfer,
			CanReceive:  canReceive,
		})
	}
	return out
}

func toReceiptResponse(receipt *adapter.Receipt) *receiptResponse {
	if receipt == nil {
		return nil
	}
	return &receiptResponse{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}
}

// productIdFromPath relies on the router pattern to guarantee digits only
func productIdFromPath(r *http.Request) (uint64, *httpErr) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, &httpErr{http.StatusBadRequest, log.Error(err), "product id is not a number"}
	}
	return id, nil
}

func (s *HttpServer) sessionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJsonResponse(w, http.StatusOK, s.session.Snapshot())
}

func (s *HttpServer) statusLabelsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJsonResponse(w, http.StatusOK, registry.StatusLabels())
}

func (s *HttpServer) productsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJsonResponse(w, http.StatusOK, toProductResponses(s.session.Snapshot()))
}

func (s *HttpServer) reloadHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.session.Reload(r.Context())
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	s.writeJsonResponse(w, http.StatusOK, toProductResponses(snapshot))
}

func (s *HttpServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	id, e := productIdFromPath(r)
	if e != nil {
		s.writeErrorResponseAndLog(w, e)
		return
	}

	entries, err := s.session.History(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, r, err)
		return
	}
	s.writeJsonResponse(w, http.StatusOK, &historyResponse{ProductId: id, Entries: entries})
}

func (s *HttpServer) registerProductHandler(w http.ResponseWriter, r *http.Request) {
	request := &registry.RegisterProductRequest{}
	if e := readInput(r, request); e != nil {
		s.writeErrorResponseAndLog(w, e)
		return
	}

	receipt, err := s.session.RegisterProduct(r.Context(), request)
	s.writeActionResponse(w, r, http.StatusCreated, receipt, err)
}

func (s *HttpServer) transferHandler(w http.ResponseWriter, r *http.Request) {
	id, e := productIdFromPath(r)
	if e != nil {
		s.writeErrorResponseAndLog(w, e)
		return
	}

	body := &transferBody{}
	if e := readInput(r, body); e != nil {
		s.writeErrorResponseAndLog(w, e)
		return
	}

	receipt, err := s.session.Transfer(r.Context(), &registry.TransferRequest{ProductId: id, Recipient: body.Recipient})
	s.writeActionResponse(w, r, http.StatusOK, receipt, err)
}

func (s *HttpServer) receiveHandler(w http.ResponseWriter, r *http.Request) {
	id, e := productIdFromPath(r)
	if e != nil {
		s.writeErrorResponseAndLog(w, e)
		return
	}

	receipt, err := s.session.Receive(r.Context(), &registry.ReceiveRequest{ProductId: id})
	s.writeActionResponse(w, r, http.StatusOK, receipt, err)
}

func (s *HttpServer) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	request := &registry.RegisterUserRequest{}
	if e := readInput(r, request); e != nil {
		s.writeErrorResponseAndLog(w, e)
		return
	}

	receipt, err := s.session.RegisterUser(r.Context(), request)
	s.writeActionResponse(w, r, http.StatusCreated, receipt, err)
}

// a confirmed write whose reload failed still succeeded on the ledger, so it is reported with a warning
func (s *HttpServer) writeActionResponse(w http.ResponseWriter, r *http.Request, code int, receipt *adapter.Receipt, err error) {
	if err != nil && receipt == nil {
		s.writeSessionError(w, r, err)
		return
	}

	response := &actionResponse{
		Receipt: toReceiptResponse(receipt),
		Session: s.session.Snapshot(),
	}
	if err != nil {
		response.Warning = err.Error()
	}
	s.writeJsonResponse(w, code, response)
}
