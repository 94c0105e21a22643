// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-only

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(fns []Function) []string {
	out := make([]string, len(fns))
	for i, f := range fns {
		out[i] = f.QualifiedName
	}
	return out
}

func TestParsePython_TopLevelAndNested(t *testing.T) {
	src := `
class Greeter:
    @staticmethod
    def hello(name):
        return f"hi {name}"

    async def bye(self):
        return None


def standalone(x):
    def inner(y):
        return y
    return inner(x)
`
	result, err := Parse(LangPython, []byte(src), "greet.py", false)
	require.NoError(t, err)
	qn := names(result.Functions)
	assert.Contains(t, qn, "Greeter.hello")
	assert.Contains(t, qn, "Greeter.bye")
	assert.Contains(t, qn, "standalone")
	assert.Contains(t, qn, "standalone.inner")

	for _, f := range result.Functions {
		if f.QualifiedName == "Greeter.hello" {
			assert.Contains(t, f.Tags, "staticmethod")
			assert.True(t, f.IsMethod)
		}
		if f.QualifiedName == "Greeter.bye" {
			assert.True(t, f.IsAsync)
		}
	}
}

func TestParsePython_LastDefinitionWins(t *testing.T) {
	src := `
def f(x):
    return 1

def f(x):
    return 2
`
	result, err := Parse(LangPython, []byte(src), "dup.py", false)
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)
	assert.Contains(t, result.Functions[0].Body, "return 2")
}

func TestParseJavaScript_DeclarationsAndArrows(t *testing.T) {
	src := `
export function add(a, b) {
  return a + b;
}

const mul = (a, b) => a * b;

class Box {
  get value() {
    return this._v;
  }
  async load() {
    return fetch("/x");
  }
}
`
	result, err := Parse(LangJavaScript, []byte(src), "math.js", false)
	require.NoError(t, err)
	qn := names(result.Functions)
	assert.Contains(t, qn, "add")
	assert.Contains(t, qn, "mul")
	assert.Contains(t, qn, "Box.get_value")
	assert.Contains(t, qn, "Box.load")

	for _, f := range result.Functions {
		if f.QualifiedName == "add" {
			assert.Contains(t, f.Tags, "export")
		}
		if f.QualifiedName == "Box.load" {
			assert.True(t, f.IsAsync)
		}
	}
}

func TestParseCPP_NamespaceAndOutOfClassDefinition(t *testing.T) {
	src := `
namespace app {

class Widget {
public:
    Widget();
    void render();
private:
    int state_;
};

void Widget::render() {
    state_ = 1;
}

}
`
	result, err := Parse(LangCPP, []byte(src), "widget.h", true)
	require.NoError(t, err)
	qn := names(result.Functions)
	assert.Contains(t, qn, "app::Widget::render")
	assert.Contains(t, qn, "app::Widget::Widget")

	var render Function
	for _, f := range result.Functions {
		if f.QualifiedName == "app::Widget::render" {
			render = f
		}
	}
	// the out-of-class definition must win over the in-class declaration
	assert.NotEmpty(t, render.Body)
	assert.NotContains(t, render.Tags, "declaration")
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	_, err := Parse("ruby", []byte("def f; end"), "f.rb", false)
	assert.Error(t, err)
}
