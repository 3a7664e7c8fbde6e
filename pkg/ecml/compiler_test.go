package ecml

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ExCiteS/geokey-epicollect/models"
)

func testProject() *models.Project {
	return &models.Project{ID: 42, Name: "Tree Survey"}
}

func textField(catID uint, key, name string, required bool) models.Field {
	return models.Field{
		CategoryID: catID,
		Key:        key,
		Name:       name,
		FieldType:  models.TextField,
		Required:   required,
	}
}

func findForm(t *testing.T, root *Element) *Element {
	t.Helper()
	form := root.Find("form")
	if form == nil {
		t.Fatal("no form element in document")
	}
	return form
}

func TestCompileHeader(t *testing.T) {
	compiler := NewFormCompiler()

	root, err := compiler.Compile(testProject(), nil, "example.com")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	if root.Tag != "ecml" {
		t.Errorf("root tag = %q, want ecml", root.Tag)
	}

	model := root.Find("model")
	if model == nil {
		t.Fatal("no model element in document")
	}

	submission := model.Find("submission")
	if submission == nil {
		t.Fatal("no submission element in model")
	}
	wantAttrs := map[string]string{
		"id":                 "42",
		"projectName":        "tree_survey",
		"allowDownloadEdits": "false",
		"versionNumber":      "2.1",
	}
	for name, want := range wantAttrs {
		if got, _ := submission.Attr(name); got != want {
			t.Errorf("submission %s = %q, want %q", name, got, want)
		}
	}

	upload := model.Find("uploadToServer")
	if upload == nil || upload.Text != "http://example.com/api/epicollect/projects/42/upload/" {
		t.Errorf("uploadToServer = %v", upload)
	}
	download := model.Find("downloadFromServer")
	if download == nil || download.Text != "http://example.com/api/epicollect/projects/42/download/" {
		t.Errorf("downloadFromServer = %v", download)
	}

	form := findForm(t, root)
	if got, _ := form.Attr("name"); got != "Tree_Survey" {
		t.Errorf("form name = %q, want Tree_Survey", got)
	}
	if got, _ := form.Attr("key"); got != "unique_id" {
		t.Errorf("form key = %q, want unique_id", got)
	}
}

// A single category needs no branching: the selector lists it and the
// jump attribute stays empty.
func TestCompileSingleCategory(t *testing.T) {
	categories := []models.Category{
		{
			ID: 7, Name: "Sighting",
			Fields: []models.Field{textField(7, "notes", "Notes", true)},
		},
	}

	root, err := NewFormCompiler().Compile(testProject(), categories, "example.com")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	form := findForm(t, root)
	selector := form.Find("select1")
	if selector == nil {
		t.Fatal("no category selector in form")
	}

	items := selector.FindAll("item")
	if len(items) != 1 {
		t.Fatalf("selector has %d items, want 1", len(items))
	}
	if got := items[0].Find("label").Text; got != "Sighting" {
		t.Errorf("selector item label = %q, want Sighting", got)
	}
	if got := items[0].Find("value").Text; got != "7" {
		t.Errorf("selector item value = %q, want 7", got)
	}
	if got, _ := selector.Attr("jump"); got != "" {
		t.Errorf("selector jump = %q, want empty", got)
	}

	inputs := form.FindAll("input")
	var compiled *Element
	for _, input := range inputs {
		if ref, _ := input.Attr("ref"); ref == "notes_7" {
			compiled = input
		}
	}
	if compiled == nil {
		t.Fatal("no input with ref notes_7")
	}
	if _, ok := compiled.Attr("required"); !ok {
		t.Error("required attribute missing on required field")
	}
	// single category: its last field needs no jump to the trailing inputs
	if _, ok := compiled.Attr("jump"); ok {
		t.Error("unexpected jump attribute on last category's field")
	}
}

// Three categories produce two jump pairs on the selector, one per
// category after the first, each anchored at that category's first field.
func TestCompileJumpChain(t *testing.T) {
	categories := []models.Category{
		{ID: 1, Name: "Trees", Fields: []models.Field{textField(1, "height", "Height", false)}},
		{ID: 2, Name: "Birds", Fields: []models.Field{textField(2, "species", "Species", false)}},
		{ID: 3, Name: "Paths", Fields: []models.Field{textField(3, "surface", "Surface", false)}},
	}

	root, err := NewFormCompiler().Compile(testProject(), categories, "example.com")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	form := findForm(t, root)
	selector := form.Find("select1")
	jump, _ := selector.Attr("jump")
	if jump != "species_2,2,surface_3,3" {
		t.Errorf("selector jump = %q, want species_2,2,surface_3,3", jump)
	}

	// every category but the last jumps to the shared trailing inputs
	// from its last field
	wantJumpEnd := map[string]bool{
		"height_1":  true,
		"species_2": true,
		"surface_3": false,
	}
	for _, input := range form.FindAll("input") {
		ref, _ := input.Attr("ref")
		want, tracked := wantJumpEnd[ref]
		if !tracked {
			continue
		}
		jump, ok := input.Attr("jump")
		if ok != want {
			t.Errorf("field %s: jump present = %v, want %v", ref, ok, want)
		}
		if ok && jump != "photo,ALL" {
			t.Errorf("field %s: jump = %q, want photo,ALL", ref, jump)
		}
	}
}

// A category with no active fields stays selectable but contributes
// nothing to the jump chain.
func TestCompileSkipsEmptyCategoryInJumpChain(t *testing.T) {
	categories := []models.Category{
		{ID: 1, Name: "Trees", Fields: []models.Field{textField(1, "height", "Height", false)}},
		{ID: 2, Name: "Empty"},
		{ID: 3, Name: "Paths", Fields: []models.Field{textField(3, "surface", "Surface", false)}},
	}

	root, err := NewFormCompiler().Compile(testProject(), categories, "example.com")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	form := findForm(t, root)
	selector := form.Find("select1")

	if items := selector.FindAll("item"); len(items) != 3 {
		t.Errorf("selector has %d items, want 3", len(items))
	}
	if jump, _ := selector.Attr("jump"); jump != "surface_3,3" {
		t.Errorf("selector jump = %q, want surface_3,3", jump)
	}
}

func TestCompileFormLayout(t *testing.T) {
	categories := []models.Category{
		{ID: 7, Name: "Sighting", Fields: []models.Field{textField(7, "notes", "Notes", false)}},
	}

	root, err := NewFormCompiler().Compile(testProject(), categories, "example.com")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	form := findForm(t, root)
	if len(form.Children) != 6 {
		t.Fatalf("form has %d children, want 6", len(form.Children))
	}

	// unique_id, location, selector, field, photo, video
	wantOrder := []struct {
		tag string
		ref string
	}{
		{"input", "unique_id"},
		{"location", "location"},
		{"select1", "category"},
		{"input", "notes_7"},
		{"photo", "photo"},
		{"video", "video"},
	}
	for i, want := range wantOrder {
		child := form.Children[i]
		ref, _ := child.Attr("ref")
		if child.Tag != want.tag || ref != want.ref {
			t.Errorf("child %d = <%s ref=%q>, want <%s ref=%q>",
				i, child.Tag, ref, want.tag, want.ref)
		}
	}

	uniqueID := form.Children[0]
	for _, attr := range []string{"required", "title", "genkey"} {
		if got, _ := uniqueID.Attr(attr); got != "true" {
			t.Errorf("unique_id %s = %q, want true", attr, got)
		}
	}
}

// An empty schema still compiles to a minimal valid document.
func TestCompileEmptySchema(t *testing.T) {
	root, err := NewFormCompiler().Compile(testProject(), nil, "example.com")
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	form := findForm(t, root)
	selector := form.Find("select1")
	if selector == nil {
		t.Fatal("no category selector in empty form")
	}
	if items := selector.FindAll("item"); len(items) != 0 {
		t.Errorf("selector has %d items, want 0", len(items))
	}
	for _, tag := range []string{"photo", "video", "location"} {
		if form.Find(tag) == nil {
			t.Errorf("no %s element in empty form", tag)
		}
	}
}

func TestCompileUnknownFieldTypeAborts(t *testing.T) {
	categories := []models.Category{
		{
			ID: 7, Name: "Sighting",
			Fields: []models.Field{
				textField(7, "notes", "Notes", false),
				{CategoryID: 7, Key: "alive", Name: "Alive", FieldType: "TrueFalseField"},
			},
		},
	}

	if _, err := NewFormCompiler().Compile(testProject(), categories, "example.com"); !errors.Is(err, ErrUnknownFieldType) {
		t.Fatalf("error = %v, want ErrUnknownFieldType", err)
	}
}

// Compiling the same schema twice yields byte-identical documents.
func TestCompileIdempotent(t *testing.T) {
	categories := []models.Category{
		{
			ID: 1, Name: "Trees",
			Fields: []models.Field{
				textField(1, "height", "Height", true),
				{
					CategoryID: 1, Key: "species", Name: "Species",
					FieldType: models.LookupField,
					Lookups:   []models.LookupOption{{ID: 11, Name: "Oak"}, {ID: 12, Name: "Ash"}},
				},
			},
		},
		{ID: 2, Name: "Birds", Fields: []models.Field{textField(2, "species", "Species", false)}},
	}

	compiler := NewFormCompiler()

	first, err := compiler.Compile(testProject(), categories, "example.com")
	if err != nil {
		t.Fatalf("first Compile returned error: %v", err)
	}
	second, err := compiler.Compile(testProject(), categories, "example.com")
	if err != nil {
		t.Fatalf("second Compile returned error: %v", err)
	}

	firstXML, err := first.XML()
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}
	secondXML, err := second.XML()
	if err != nil {
		t.Fatalf("XML returned error: %v", err)
	}

	if !bytes.Equal(firstXML, secondXML) {
		t.Error("compiling the same schema twice produced different documents")
	}
	if !strings.HasPrefix(string(firstXML), "<ecml version=\"1\">") {
		t.Errorf("document starts with %q", string(firstXML)[:30])
	}
}
