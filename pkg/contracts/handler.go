package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// LongRunning is implemented by handlers with routes that must not be cut
// short by the request timeout middleware. Paths use httprouter syntax.
type LongRunning interface {
	LongRunningRoutes() []string
}
