// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aeroledger/aeroledger/business/sys/metrics"
	"github.com/aeroledger/aeroledger/business/sys/validate"
	v1 "github.com/aeroledger/aeroledger/business/web/v1"
	"github.com/aeroledger/aeroledger/foundation/blockchain/database"
	"github.com/aeroledger/aeroledger/foundation/blockchain/ledger"
	"github.com/aeroledger/aeroledger/foundation/blockchain/signature"
	"github.com/aeroledger/aeroledger/foundation/events"
	"github.com/aeroledger/aeroledger/foundation/web"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of maintenance ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Signer *signature.Signer
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Subscribe(v.TraceID)
	defer func() {
		if dropped, err := h.Evts.Unsubscribe(v.TraceID); err == nil && dropped > 0 {
			h.Log.Infow("events", "traceid", v.TraceID, "dropped", dropped)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, wd := <-ch:
			if !wd {
				return nil
			}

			// The connection is hijacked, a failed write means the client is gone.
			if err := c.WriteJSON(e); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// AddMaintenance validates and signs a maintenance record and then mines it
// into the next block of the chain. Both JSON and form submissions are
// accepted.
func (h Handlers) AddMaintenance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nm NewMaintenance
	switch {
	case strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"):
		if err := web.Decode(r, &nm); err != nil {
			return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
		}

	default:
		nm, err = formMaintenance(r)
		if err != nil {
			if validate.IsFieldErrors(err) {
				return err
			}
			return v1.NewRequestError(fmt.Errorf("unable to parse form: %w", err), http.StatusBadRequest)
		}
	}

	if err := validate.Check(nm); err != nil {
		return err
	}

	record := nm.Record()

	payload, err := record.Encode()
	if err != nil {
		return err
	}

	sig, err := h.Signer.Sign(payload)
	if err != nil {
		return fmt.Errorf("sign record: %w", err)
	}

	h.Log.Infow("add maintenance", "traceid", v.TraceID, "aircraft", record.AircraftName, "age", record.Age)

	block, err := h.Ledger.AppendBlock(ctx, record)
	if err != nil {
		return err
	}

	metrics.SetBlocks(ctx, block.Index)

	h.Evts.Publish(events.Appended(events.BlockAppended{
		Index:        block.Index,
		Hash:         block.Hash,
		PreviousHash: block.PrevBlockHash,
		AircraftName: record.AircraftName,
		Nonce:        block.Nonce,
	}))

	resp := MaintenanceAdded{
		Status:       "success",
		Index:        block.Index,
		Hash:         block.Hash,
		PreviousHash: block.PrevBlockHash,
		BlockData:    record,
		Signature:    signature.SignatureString(sig),
		Payload:      hexutil.Encode(payload),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns every block in the chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.Ledger.ListBlocks(ctx)
	if err != nil {
		return err
	}

	if blocks == nil {
		blocks = []database.Block{}
	}

	return web.Respond(ctx, w, Blocks{Blocks: blocks}, http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	block, err := h.Ledger.QueryBlock(ctx, index)
	if err != nil {
		if errors.Is(err, database.ErrBlockNotFound) {
			return v1.NewRequestError(fmt.Errorf("block %d: %w", index, err), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// ValidateChain walks the chain and reports whether every block is valid.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.Ledger.ValidateChain(ctx)

	status := ChainStatus{
		Valid:      err == nil,
		Blocks:     n,
		Difficulty: h.Ledger.Difficulty(),
	}

	if err != nil {
		if database.IsStoreError(err) {
			return err
		}
		status.Error = err.Error()
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Sign signs the provided text with the node key.
func (h Handlers) Sign(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req SignRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	sig, err := h.Signer.Sign([]byte(req.Data))
	if err != nil {
		return err
	}

	pem, err := h.Signer.PublicKeyPEM()
	if err != nil {
		return err
	}

	resp := SignResponse{
		Signature: signature.SignatureString(sig),
		PublicKey: pem,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Verify checks a signature over the provided text. A signature that can't
// be decoded is reported as not valid.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req VerifyRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	publicKey := h.Signer.PublicKey()
	if req.PublicKey != "" {
		pk, err := signature.ParsePublicKeyPEM(req.PublicKey)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		publicKey = pk
	}

	var resp VerifyResponse
	if sig, err := signature.ToSignatureBytes(req.Signature); err == nil {
		resp.Valid = signature.Verify([]byte(req.Data), sig, publicKey)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// VerifyMaintenance checks a signature returned by AddMaintenance. The record
// is encoded the same way it was when signed, so clients send the record
// back rather than the bytes that were signed.
func (h Handlers) VerifyMaintenance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req VerifyMaintenance
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	publicKey := h.Signer.PublicKey()
	if req.PublicKey != "" {
		pk, err := signature.ParsePublicKeyPEM(req.PublicKey)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		publicKey = pk
	}

	payload, err := req.Record.Record().Encode()
	if err != nil {
		return err
	}

	var resp VerifyResponse
	if sig, err := signature.ToSignatureBytes(req.Signature); err == nil {
		resp.Valid = signature.Verify(payload, sig, publicKey)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// PublicKey returns the PEM encoded public key of the node.
func (h Handlers) PublicKey(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pem, err := h.Signer.PublicKeyPEM()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, PublicKey{PublicKey: pem}, http.StatusOK)
}
