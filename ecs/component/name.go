package component

// Name labels a node so scene specs and scripts can refer to it.
type Name struct {
	Value string
}

var NameComponent = NewComponent[Name]()
