package httpchi

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mind-engage/lti-launch/pkg/lti-launch/launch"
)

// API mounts a launch.Handler on a chi router. A declined request falls
// through to the router's not-found handling; an internal failure
// answers with a bare 500 so no handshake detail reaches the browser.
type API struct {
	Handler *launch.Handler
}

func (a *API) Routes(r chi.Router) {
	r.Post(a.Handler.Options.InitiationPath(), a.serve(a.Handler.HandleInitiation))
	r.Post(a.Handler.Options.LoginPath(), a.serve(a.Handler.HandleLogin))
}

func (a *API) serve(fn func(http.ResponseWriter, *http.Request) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handled, err := fn(w, r)
		if err != nil {
			log.Printf("lti: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !handled {
			http.NotFound(w, r)
		}
	}
}
