package comp

import "github.com/dhamidi/saic/java/symbols"

// Todo collects the envs of shaped top-level classes for the phases that
// run after member entry, in the order their shapes were completed.
type Todo struct {
	envs []*Env
}

func NewTodo() *Todo { return &Todo{} }

// Append queues env.
func (q *Todo) Append(env *Env) { q.envs = append(q.envs, env) }

// Remove drops every queued env of class c.
func (q *Todo) Remove(c symbols.SymbolID) {
	kept := q.envs[:0]
	for _, env := range q.envs {
		if classOf(env) != c {
			kept = append(kept, env)
		}
	}
	clear(q.envs[len(kept):])
	q.envs = kept
}

func (q *Todo) Len() int { return len(q.envs) }

// Envs returns the queued envs.
func (q *Todo) Envs() []*Env { return append([]*Env(nil), q.envs...) }

// Classes returns the queued class symbols.
func (q *Todo) Classes() []symbols.SymbolID {
	out := make([]symbols.SymbolID, 0, len(q.envs))
	for _, env := range q.envs {
		out = append(out, classOf(env))
	}
	return out
}

// Clear empties the queue.
func (q *Todo) Clear() { q.envs = nil }

func classOf(env *Env) symbols.SymbolID {
	if env.EnclClass == nil {
		return symbols.NoSymbolID
	}
	return env.EnclClass.Sym
}
