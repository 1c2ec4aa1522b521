package lang

// Static tables for the language built-ins. Order matters: completion
// candidates are emitted in table order, and the consuming editor applies
// its own fuzzy re-ranking on top.

var Keywords = []string{
	"class", "fun", "async", "await", "return",
	"if", "elif", "else", "while", "for", "in",
	"break", "continue", "pass",
	"import", "from", "as",
	"and", "or", "not",
	"true", "false", "nil",
	"this",
}

var Types = []string{
	"Int", "Float", "Str", "Bool", "List", "Map", "Nil",
}

var Functions = []string{
	"print", "len", "range", "type",
	"str", "int", "float", "bool",
	"push", "pop", "keys", "values",
	"input", "assert", "panic",
}

// Modules lists the interpreter's bundled standard modules.
var Modules = []string{
	"math", "strings", "io", "os", "time", "json", "random", "testing",
}

var Decorators = []string{
	"memoize", "deprecated", "export", "test", "main", "async",
}
