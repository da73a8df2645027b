package evaluator

// Node is a parsed expression element
type Node interface {
	Eval(data map[string]interface{}) interface{}
}

type (
	literal struct {
		value interface{}
	}

	path struct {
		name string
	}

	not struct {
		operand Node
	}

	logical struct {
		and         bool
		left, right Node
	}

	comparison struct {
		operator    int
		left, right Node
	}
)

func (l *literal) Eval(map[string]interface{}) interface{} {
	return l.value
}

func (p *path) Eval(data map[string]interface{}) interface{} {
	value, _ := Resolve(data, p.name)
	return value
}

func (n *not) Eval(data map[string]interface{}) interface{} {
	return !Truthy(n.operand.Eval(data))
}

func (l *logical) Eval(data map[string]interface{}) interface{} {
	left := Truthy(l.left.Eval(data))
	if l.and {
		if !left {
			return false
		}
		return Truthy(l.right.Eval(data))
	}
	if left {
		return true
	}
	return Truthy(l.right.Eval(data))
}

func (c *comparison) Eval(data map[string]interface{}) interface{} {
	left := c.left.Eval(data)
	right := c.right.Eval(data)
	switch c.operator {
	case equalCode:
		return Equal(left, right)
	case notEqualCode:
		return !Equal(left, right)
	case containsCode:
		return Contains(left, right)
	}
	result, ok := Compare(left, right)
	if !ok {
		return false
	}
	switch c.operator {
	case greaterCode:
		return result > 0
	case greaterEqualCode:
		return result >= 0
	case lessCode:
		return result < 0
	case lessEqualCode:
		return result <= 0
	}
	return false
}
