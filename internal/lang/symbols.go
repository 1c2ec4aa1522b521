package lang

// SymbolTable is the extracted index of names for one source file. It is
// rebuilt from scratch on every parse; nothing mutates a stale table.
type SymbolTable struct {
	Functions        map[string]bool
	Classes          map[string]bool
	Variables        map[string]bool
	ClassMethods     map[string]map[string]bool
	VariableTypes    map[string]string
	ObjectProperties map[string]map[string]bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Functions:        make(map[string]bool),
		Classes:          make(map[string]bool),
		Variables:        make(map[string]bool),
		ClassMethods:     make(map[string]map[string]bool),
		VariableTypes:    make(map[string]string),
		ObjectProperties: make(map[string]map[string]bool),
	}
}

func (t *SymbolTable) addMethod(class, name string) {
	methods, ok := t.ClassMethods[class]
	if !ok {
		methods = make(map[string]bool)
		t.ClassMethods[class] = methods
	}
	methods[name] = true
}

func (t *SymbolTable) addProperty(object, key string) {
	props, ok := t.ObjectProperties[object]
	if !ok {
		props = make(map[string]bool)
		t.ObjectProperties[object] = props
	}
	props[key] = true
}

// SymbolCount counts every recorded name, methods and properties included.
func (t *SymbolTable) SymbolCount() int {
	if t == nil {
		return 0
	}
	n := len(t.Functions) + len(t.Classes) + len(t.Variables)
	for _, methods := range t.ClassMethods {
		n += len(methods)
	}
	for _, props := range t.ObjectProperties {
		n += len(props)
	}
	return n
}
