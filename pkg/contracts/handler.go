package contracts

import "github.com/julienschmidt/httprouter"

// Handler is any component that mounts endpoints on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
