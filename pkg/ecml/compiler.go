package ecml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ExCiteS/geokey-epicollect/models"
)

// Paths the compiled form points the mobile client at. They must match
// the routes registered for the upload/download handlers.
const (
	uploadPathFmt   = "/api/epicollect/projects/%d/upload/"
	downloadPathFmt = "/api/epicollect/projects/%d/download/"
)

// FormCompiler turns a project schema into an EcML form document.
type FormCompiler struct{}

// NewFormCompiler creates a new form compiler
func NewFormCompiler() *FormCompiler {
	return &FormCompiler{}
}

// Compile builds the full EcML document for a project. Categories and
// their fields must already be filtered to active items and ordered.
// The same schema and base URL always produce the same bytes; nothing
// here is cached or randomised.
func (c *FormCompiler) Compile(project *models.Project, categories []models.Category, baseURL string) (*Element, error) {
	root := NewElement("ecml", Attr{Name: "version", Value: "1"})

	model := NewElement("model", Attr{Name: "version", Value: "1"})
	model.Append(NewElement(
		"submission",
		Attr{Name: "id", Value: formatUint(project.ID)},
		Attr{Name: "projectName", Value: strings.ToLower(project.SanitizedName())},
		Attr{Name: "allowDownloadEdits", Value: "false"},
		Attr{Name: "versionNumber", Value: "2.1"},
	))

	upload := NewElement("uploadToServer")
	upload.Text = "http://" + baseURL + fmt.Sprintf(uploadPathFmt, project.ID)
	model.Append(upload)

	download := NewElement("downloadFromServer")
	download.Text = "http://" + baseURL + fmt.Sprintf(downloadPathFmt, project.ID)
	model.Append(download)
	root.Append(model)

	form, err := c.compileCategories(categories)
	if err != nil {
		return nil, err
	}
	form.SetAttr("name", project.SanitizedName())
	form.SetAttr("key", "unique_id")

	form.Append(photoInput(), videoInput())
	form.Insert(0, uniqueIDInput())
	form.Insert(1, locationInput())

	root.Append(form)

	return root, nil
}

// compileCategories builds the form subtree: the category selector with
// its jump chain, followed by every active field in category order.
//
// The jump chain steers the client to the right branch: for category
// index i > 0, picking it jumps to that category's first field, encoded
// as the pair "<compositeKey>,<i+1>". The last field of every category
// except the final one jumps to the shared trailing inputs so data entry
// always ends at photo/video. A category without active fields appears
// in the selector but contributes nothing to the chain.
func (c *FormCompiler) compileCategories(categories []models.Category) (*Element, error) {
	form := NewElement(
		"form",
		Attr{Name: "num", Value: "1"},
		Attr{Name: "main", Value: "true"},
	)

	selector := NewElement(
		"select1",
		Attr{Name: "ref", Value: "category"},
		Attr{Name: "required", Value: "true"},
		Attr{Name: "jump", Value: ""},
	)
	selector.Append(newLabel("Select type"))
	form.Append(selector)

	var jumps []string
	for i, category := range categories {
		selector.Append(newItem(category.Name, formatUint(category.ID)))

		for j := range category.Fields {
			field := &category.Fields[j]

			el, err := CompileField(field)
			if err != nil {
				return nil, err
			}

			if i > 0 && j == 0 {
				jumps = append(jumps, field.CompositeKey(), strconv.Itoa(i+1))
			}
			if j == len(category.Fields)-1 && i < len(categories)-1 {
				el.SetAttr("jump", "photo,ALL")
			}

			form.Append(el)
		}
	}
	selector.SetAttr("jump", strings.Join(jumps, ","))

	return form, nil
}

// uniqueIDInput is the synthetic key field. The client generates the
// value and uses it as the record title.
func uniqueIDInput() *Element {
	el := NewElement(
		"input",
		Attr{Name: "required", Value: "true"},
		Attr{Name: "title", Value: "true"},
		Attr{Name: "genkey", Value: "true"},
		Attr{Name: "ref", Value: "unique_id"},
	)
	el.Append(newLabel("Unique ID"))
	return el
}

// locationInput maps to the observation geometry.
func locationInput() *Element {
	el := NewElement("location", Attr{Name: "ref", Value: "location"})
	el.Append(newLabel("Location"))
	return el
}

func photoInput() *Element {
	el := NewElement("photo", Attr{Name: "ref", Value: "photo"})
	el.Append(newLabel("Add photo"))
	return el
}

func videoInput() *Element {
	el := NewElement("video", Attr{Name: "ref", Value: "video"})
	el.Append(newLabel("Add video"))
	return el
}
