// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/noobcash/blockchain/app/services/node/handlers/v1/private"
	"github.com/noobcash/blockchain/app/services/node/handlers/v1/public"
	"github.com/noobcash/blockchain/foundation/blockchain/state"
	"github.com/noobcash/blockchain/foundation/events"
	"github.com/noobcash/blockchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/tx/last", pbl.LastBlock)
	app.Handle(http.MethodGet, version, "/balance", pbl.Balance)
	app.Handle(http.MethodGet, version, "/measurements", pbl.Measurements)
	app.Handle(http.MethodGet, version, "/debug/state", pbl.Status)
	app.Handle(http.MethodGet, version, "/debug/contacts", pbl.Contacts)
	app.Handle(http.MethodGet, version, "/debug/blockchain", pbl.Blockchain)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, version, "/node/"+state.RouteRegister, prv.Register)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteContacts, prv.Contacts)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteBlockchain, prv.Blockchain)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteTransaction, prv.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteBlock, prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteAskBlockchain, prv.AskBlockchain)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteTxEnded, prv.TransactionEnded)
	app.Handle(http.MethodPost, version, "/node/"+state.RouteReadWorkload, prv.ReadWorkload)
}
