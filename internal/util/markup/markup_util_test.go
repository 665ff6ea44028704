package markup

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parse(t *testing.T, doc string) *html.Node {
	t.Helper()
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return node
}

func TestFindFirst(t *testing.T) {
	root := parse(t, `<html><body><main id="app"><div class="card surface">Hi</div></main></body></html>`)

	tests := []struct {
		name     string
		selector string
		tag      string
	}{
		{name: "Tag", selector: "main", tag: "main"},
		{name: "Id", selector: "#app", tag: "main"},
		{name: "Class", selector: ".surface", tag: "div"},
		{name: "Missing", selector: ".nope", tag: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := FindFirst(root, tt.selector)
			switch {
			case tt.tag == "" && found != nil:
				t.Errorf("FindFirst(%q) = %v, want nil", tt.selector, found.Data)
			case tt.tag != "" && (found == nil || found.Data != tt.tag):
				t.Errorf("FindFirst(%q) did not return <%s>", tt.selector, tt.tag)
			}
		})
	}
}

func TestClassListAndText(t *testing.T) {
	root := parse(t, `<p class=" a  b ">Hello <b>world</b></p>`)
	p := FindFirst(root, "p")
	if p == nil {
		t.Fatal("p not found")
	}
	if got := ClassList(p); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("ClassList() = %v", got)
	}
	if got := ExtractInnerText(p); got != "Hello world" {
		t.Errorf("ExtractInnerText() = %q", got)
	}
}
