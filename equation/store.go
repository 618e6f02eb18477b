package equation

// Store records declared equations and indexes them by every variable they
// reference, so the solver can enumerate all equations constraining a given
// variable. Declaration order is preserved; it anchors solver determinism.
type Store struct {
	eqs   []*Equation
	byVar map[uint32][]*Equation
}

func NewStore() *Store {
	return &Store{byVar: map[uint32][]*Equation{}}
}

// Declare records eq, assigns its sequence number and indexes it under every
// referenced variable.
func (s *Store) Declare(eq *Equation) {
	eq.seq = len(s.eqs) + 1
	s.eqs = append(s.eqs, eq)
	for _, v := range eq.Vars() {
		s.byVar[v.ID()] = append(s.byVar[v.ID()], eq)
	}
}

// ForVariable returns the equations referencing v, in declaration order.
// The returned slice is owned by the store.
func (s *Store) ForVariable(v Var) []*Equation {
	return s.byVar[v.ID()]
}

// Equations returns all declared equations in declaration order. The
// returned slice is owned by the store.
func (s *Store) Equations() []*Equation {
	return s.eqs
}

func (s *Store) Len() int {
	return len(s.eqs)
}

// Remove drops eq from the store and its index. Used by subtree removal;
// sequence numbers of surviving equations are unchanged so diagnostics stay
// stable.
func (s *Store) Remove(eq *Equation) {
	for i, e := range s.eqs {
		if e == eq {
			s.eqs = append(s.eqs[:i], s.eqs[i+1:]...)
			break
		}
	}
	for _, v := range eq.Vars() {
		list := s.byVar[v.ID()]
		for i, e := range list {
			if e == eq {
				s.byVar[v.ID()] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(s.byVar[v.ID()]) == 0 {
			delete(s.byVar, v.ID())
		}
	}
}
