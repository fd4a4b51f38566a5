package game

import "fmt"

// Registry maps game ids to handlers. It is built once at start-up and only
// read afterwards.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		if _, dup := r.handlers[h.ID()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGame, h.ID())
		}
		r.handlers[h.ID()] = h
		r.order = append(r.order, h.ID())
	}
	return r, nil
}

// DefaultRegistry registers every built-in handler.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		TicTacToe{},
		Connect4{},
		Ludo{},
		PaddleArena(),
		BeachBall(),
		Stealthering(),
		TreeCutter(),
		Snakes(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Get(id string) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}
