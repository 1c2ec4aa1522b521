package lang

import (
	"reflect"
	"testing"
)

const sampleSource = `class User:
    fun name(this):
        return this._name

fun greet():
    print("hi")

user = User()
`

func TestExtractClassesAndFunctions(t *testing.T) {
	table := Extract(sampleSource)

	if !table.Classes["User"] {
		t.Error("expected class User")
	}
	if !table.Functions["greet"] {
		t.Error("expected top-level function greet")
	}
	if table.Functions["name"] {
		t.Error("method name must not appear as top-level function")
	}
	if !table.ClassMethods["User"]["name"] {
		t.Errorf("expected method name on User, got %v", table.ClassMethods)
	}
	if table.VariableTypes["user"] != "User" {
		t.Errorf("expected variableTypes[user]=User, got %q", table.VariableTypes["user"])
	}
}

func TestExtractIdempotent(t *testing.T) {
	a := Extract(sampleSource)
	b := Extract(sampleSource)
	if !reflect.DeepEqual(a, b) {
		t.Error("extracting the same text twice must yield identical tables")
	}
}

func TestExtractDedentClosesClassScope(t *testing.T) {
	src := `class A:
    fun inside(this):
        pass
fun outside():
    pass
`
	table := Extract(src)
	if !table.ClassMethods["A"]["inside"] {
		t.Error("expected inside as method of A")
	}
	if !table.Functions["outside"] {
		t.Error("outside declared at class indent must close the scope")
	}
	if table.ClassMethods["A"]["outside"] {
		t.Error("outside must not be attributed to A")
	}
}

func TestExtractNestedClasses(t *testing.T) {
	src := `class Outer:
    class Inner:
        fun deep(this):
            pass
    fun shallow(this):
        pass
`
	table := Extract(src)
	if !table.Classes["Outer"] || !table.Classes["Inner"] {
		t.Errorf("expected both classes, got %v", table.Classes)
	}
	if !table.ClassMethods["Inner"]["deep"] {
		t.Error("deep must be attributed to Inner")
	}
	if !table.ClassMethods["Outer"]["shallow"] {
		t.Error("shallow at Inner's indent must pop Inner and attach to Outer")
	}
}

func TestExtractAsyncFun(t *testing.T) {
	table := Extract("async fun fetch():\n    pass\n")
	if !table.Functions["fetch"] {
		t.Errorf("async modifier must not hide the declaration, got %v", table.Functions)
	}
}

func TestExtractObjectLiteralMultiLine(t *testing.T) {
	src := `config = {
    host: "localhost",
    "port": 8080,
}
ready = true
`
	table := Extract(src)
	props := table.ObjectProperties["config"]
	if !props["host"] || !props["port"] {
		t.Errorf("expected host and port keys, got %v", props)
	}
	if !table.Variables["config"] {
		t.Error("object literal at indent 0 must also record the variable")
	}
	if !table.Variables["ready"] {
		t.Error("assignment after the closing brace must still be seen")
	}
}

func TestExtractObjectLiteralSingleLine(t *testing.T) {
	table := Extract(`opts = {debug: true, level: 2}` + "\n" + `other = 1` + "\n")
	props := table.ObjectProperties["opts"]
	if !props["debug"] || !props["level"] {
		t.Errorf("expected debug and level, got %v", props)
	}
	if table.ObjectProperties["opts"]["other"] {
		t.Error("object must close on the same line as its brace")
	}
}

func TestExtractObjectClosedByDedent(t *testing.T) {
	src := `box = {
    a: 1
b = 2
`
	table := Extract(src)
	if !table.ObjectProperties["box"]["a"] {
		t.Error("expected key a before the dedent")
	}
	if table.ObjectProperties["box"]["b"] {
		t.Error("dedent at or below the start indent must close the object")
	}
	if !table.Variables["b"] {
		t.Error("the dedenting line must still match the assignment rule")
	}
}

func TestExtractSiblingObjectTakesOver(t *testing.T) {
	src := `a = {
    x: 1
b = {
    y: 2
}
`
	table := Extract(src)
	if !table.ObjectProperties["a"]["x"] {
		t.Error("expected key x on a")
	}
	if !table.ObjectProperties["b"]["y"] {
		t.Errorf("a sibling literal start must begin tracking b, got %v", table.ObjectProperties)
	}
	if table.ObjectProperties["a"]["y"] {
		t.Error("keys after the takeover must not leak into the previous object")
	}
	if !table.Variables["a"] || !table.Variables["b"] {
		t.Errorf("both zero-indent literals must be recorded as variables, got %v", table.Variables)
	}
}

func TestExtractSingleLeadingSpaceIsLevelZero(t *testing.T) {
	// One space rounds down to level 0, so the top-level rules apply.
	src := " x = 1\n y = Foo()\n"
	table := Extract(src)
	if !table.Variables["x"] {
		t.Errorf("one-space indent must still match the assignment rule, got %v", table.Variables)
	}
	if table.VariableTypes["y"] != "Foo" {
		t.Errorf("one-space indent must still match the constructor rule, got %v", table.VariableTypes)
	}
}

func TestExtractTopLevelOnlyVariables(t *testing.T) {
	src := `fun f():
    local = 1
global_one = 2
`
	table := Extract(src)
	if table.Variables["local"] {
		t.Error("indented assignment must not be recorded")
	}
	if !table.Variables["global_one"] {
		t.Error("zero-indent assignment must be recorded")
	}
}

func TestExtractLastAssignmentWinsForTypes(t *testing.T) {
	src := "x = Foo()\nx = Bar()\n"
	table := Extract(src)
	if table.VariableTypes["x"] != "Bar" {
		t.Errorf("last assignment must win, got %q", table.VariableTypes["x"])
	}
}

func TestExtractTabIndentation(t *testing.T) {
	src := "class T:\n\tfun m(this):\n\t\tpass\n"
	table := Extract(src)
	if !table.ClassMethods["T"]["m"] {
		t.Errorf("tab indent must count as one level, got %v", table.ClassMethods)
	}
}

func TestExtractTieRoundsUp(t *testing.T) {
	// Two spaces rounds up to level 1, so the method stays inside the class.
	src := "class T:\n  fun m(this):\n"
	table := Extract(src)
	if !table.ClassMethods["T"]["m"] {
		t.Errorf("2-space indent must round up to level 1, got %v", table.ClassMethods)
	}
}

func TestExtractMalformedLinesContributeNothing(t *testing.T) {
	src := "???\n= broken\nclass\nfun\n123 = 4\n"
	table := Extract(src)
	if table.SymbolCount() != 0 {
		t.Errorf("malformed input must yield an empty table, got %+v", table)
	}
}

func TestExtractCommentsNeutralized(t *testing.T) {
	src := "# fun ghost():\n## block\nfun phantom():\n## end\nfun real():\n"
	table := Extract(src)
	if table.Functions["ghost"] || table.Functions["phantom"] {
		t.Errorf("commented declarations must be invisible, got %v", table.Functions)
	}
	if !table.Functions["real"] {
		t.Error("declaration after the block closes must be seen")
	}
}
