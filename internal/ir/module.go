package ir

// Module is an ordered set of functions. Iteration order is the order
// functions were added and stays stable across a pass run.
type Module struct {
	Funcs []*Func
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// AddFunc appends a function and returns its ID.
func (m *Module) AddFunc(f *Func) FuncID {
	m.Funcs = append(m.Funcs, f)
	return FuncID(len(m.Funcs) - 1)
}

// FuncByName returns the first function with the given name, or nil.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
