package engine

import "github.com/san-kum/orrery/internal/body"

// WithDrop discards messages for which f returns true, simulating loss.
func WithDrop(f func(to string, msg body.Message) bool) Option {
	return func(e *Engine) { e.drop = f }
}
