// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/aeroledger/aeroledger/app/services/node/handlers/v1/public"
	"github.com/aeroledger/aeroledger/foundation/blockchain/ledger"
	"github.com/aeroledger/aeroledger/foundation/blockchain/signature"
	"github.com/aeroledger/aeroledger/foundation/events"
	"github.com/aeroledger/aeroledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Signer *signature.Signer
	Evts   *events.Events
}

// Routes binds all the version 1 routes along with the unversioned routes
// existing maintenance clients post to.
func Routes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Signer: cfg.Signer,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodPost, version, "/maintenance/add", pbl.AddMaintenance)
	app.Handle(http.MethodPost, version, "/maintenance/verify", pbl.VerifyMaintenance)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/list/:index", pbl.BlockByIndex)
	app.Handle(http.MethodGet, version, "/blocks/validate", pbl.ValidateChain)
	app.Handle(http.MethodPost, version, "/signature/sign", pbl.Sign)
	app.Handle(http.MethodPost, version, "/signature/verify", pbl.Verify)
	app.Handle(http.MethodGet, version, "/signature/publickey", pbl.PublicKey)

	app.Handle(http.MethodPost, "", "/add_maintenance", pbl.AddMaintenance)
	app.Handle(http.MethodGet, "", "/get_blocks", pbl.Blocks)
}
