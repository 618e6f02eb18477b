package equation

import "github.com/voltforge/voltc/quantity"

// TemplateExpr is the unbound form of an expression: variables are referenced
// by dotted path instead of identity. Module definitions carry their
// internally-scoped equations as templates (paths local to the definition),
// and the frontend receives declared equations as templates with root paths.
// Bind resolves the paths against a concrete subtree.
type TemplateExpr interface {
	isTemplate()
}

// TLit is a literal quantity in a template.
type TLit struct {
	Value quantity.Quantity
}

// TVar references a variable by dotted path.
type TVar struct {
	Path string
}

// TBin applies Op to two template subtrees.
type TBin struct {
	Op          Op
	Left, Right TemplateExpr
}

func (TLit) isTemplate() {}
func (TVar) isTemplate() {}
func (TBin) isTemplate() {}

// Bind resolves every TVar path through lookup and returns the bound
// expression. The first lookup failure aborts the bind.
func Bind(t TemplateExpr, lookup func(path string) (Var, error)) (Expr, error) {
	switch n := t.(type) {
	case TLit:
		return Literal{Value: n.Value}, nil
	case TVar:
		v, err := lookup(n.Path)
		if err != nil {
			return nil, err
		}
		return VarRef{V: v}, nil
	case TBin:
		l, err := Bind(n.Left, lookup)
		if err != nil {
			return nil, err
		}
		r, err := Bind(n.Right, lookup)
		if err != nil {
			return nil, err
		}
		return Binary{Op: n.Op, Left: l, Right: r}, nil
	default:
		panic("unknown template node")
	}
}
