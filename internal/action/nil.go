package action

// Nil is the empty action: immediately done, no output. switch falls back to
// it when the selected branch is absent.
type Nil struct {
	base
}

// NewNil creates a nil node.
func NewNil(path string) *Nil {
	return &Nil{base: base{path: path}}
}

func (n *Nil) Start(rt *Runtime) error {
	n.state = Active
	return nil
}

func (n *Nil) Tick(t Tick, rt *Runtime) (Outcome, error) {
	n.state = Done
	return Outcome{Done: true, Rem: t.Delta}, nil
}

func (n *Nil) Stop(rt *Runtime) error {
	n.state = Done
	return nil
}
