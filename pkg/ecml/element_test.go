package ecml

import (
	"testing"
)

func TestElementXML(t *testing.T) {
	el := NewElement("form", Attr{Name: "num", Value: "1"}, Attr{Name: "main", Value: "true"})
	el.Append(newLabel("Select type"))
	el.Append(newItem("Sighting", "7"))

	got, err := el.XML()
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}

	want := `<form num="1" main="true"><label>Select type</label>` +
		`<item><label>Sighting</label><value>7</value></item></form>`
	if string(got) != want {
		t.Errorf("XML = %s, want %s", got, want)
	}
}

func TestElementXMLEscaping(t *testing.T) {
	el := NewElement("label")
	el.Text = `Height <in metres> & "roots"`

	got, err := el.XML()
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}

	want := "<label>Height &lt;in metres&gt; &amp; &#34;roots&#34;</label>"
	if string(got) != want {
		t.Errorf("XML = %s, want %s", got, want)
	}
}

func TestElementSetAttrReplaces(t *testing.T) {
	el := NewElement("select1", Attr{Name: "jump", Value: ""})
	el.SetAttr("jump", "notes_7,2")
	el.SetAttr("required", "true")

	if len(el.Attrs) != 2 {
		t.Fatalf("got %d attributes, want 2", len(el.Attrs))
	}
	if got, _ := el.Attr("jump"); got != "notes_7,2" {
		t.Errorf("jump = %q, want notes_7,2", got)
	}
}

func TestElementInsert(t *testing.T) {
	el := NewElement("form")
	el.Append(NewElement("select1"), NewElement("photo"))
	el.Insert(0, NewElement("input"))
	el.Insert(1, NewElement("location"))

	wantTags := []string{"input", "location", "select1", "photo"}
	if len(el.Children) != len(wantTags) {
		t.Fatalf("got %d children, want %d", len(el.Children), len(wantTags))
	}
	for i, want := range wantTags {
		if el.Children[i].Tag != want {
			t.Errorf("child %d = %q, want %q", i, el.Children[i].Tag, want)
		}
	}
}
