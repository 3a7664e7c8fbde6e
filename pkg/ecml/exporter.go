package ecml

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ExCiteS/geokey-epicollect/models"
)

// RecordExporter projects stored observations into the flat download
// formats the EpiCollect client understands: an XML entry document, a
// tab-delimited text or an Excel workbook. The schema drives property
// ordering so repeated exports of the same data are byte-identical.
type RecordExporter struct {
	project    *models.Project
	categories map[uint]*models.Category
	order      []uint
}

// NewRecordExporter creates an exporter for a project's active schema.
func NewRecordExporter(project *models.Project, categories []models.Category) *RecordExporter {
	e := &RecordExporter{
		project:    project,
		categories: make(map[uint]*models.Category, len(categories)),
	}
	for i := range categories {
		e.categories[categories[i].ID] = &categories[i]
		e.order = append(e.order, categories[i].ID)
	}
	return e
}

// exportTag returns the export tag for a schema field: the composite key,
// so identically-keyed fields of different categories stay apart. Static
// fields keep their bare keys and never reach here.
func exportTag(field *models.Field) string {
	return field.CompositeKey()
}

// entryPairs lists an observation's property tags and encoded values in
// export order: the static system fields first, then the observation's
// category fields in schema order.
func (e *RecordExporter) entryPairs(observation *models.Observation) [][2]string {
	var pairs [][2]string

	for _, key := range staticFields {
		pairs = append(pairs, [2]string{key, EncodeValue(observation.Properties[key])})
	}

	category, ok := e.categories[observation.CategoryID]
	if !ok {
		return pairs
	}
	for i := range category.Fields {
		field := &category.Fields[i]
		pairs = append(pairs, [2]string{
			exportTag(field),
			EncodeValue(observation.Properties[field.Key]),
		})
	}

	return pairs
}

// entryElement serialises one observation into an <entry> element.
func (e *RecordExporter) entryElement(observation *models.Observation) *Element {
	entry := NewElement("entry")

	id := NewElement("id")
	id.Text = observation.ID.String()
	entry.Append(id)

	lon := NewElement("location_lon")
	lon.Text = strconv.FormatFloat(observation.Location().Lon(), 'f', -1, 64)
	entry.Append(lon)

	lat := NewElement("location_lat")
	lat.Text = strconv.FormatFloat(observation.Location().Lat(), 'f', -1, 64)
	entry.Append(lat)

	created := NewElement("created")
	created.Text = strconv.FormatInt(observation.CreatedAt.UTC().Unix(), 10)
	entry.Append(created)

	uploaded := NewElement("uploaded")
	uploaded.Text = observation.CreatedAt.Format("2006-01-02 15:04:05")
	entry.Append(uploaded)

	for _, pair := range e.entryPairs(observation) {
		el := NewElement(pair[0])
		el.Text = pair[1]
		entry.Append(el)
	}

	return entry
}

// ToEntryDocument builds the XML download document: a table header with
// the project name followed by one <entry> per observation.
func (e *RecordExporter) ToEntryDocument(observations []models.Observation) *Element {
	root := NewElement("entries")

	table := NewElement("table")
	tableName := NewElement("table_name")
	tableName.Text = e.project.SanitizedName()
	table.Append(tableName)
	root.Append(table)

	for i := range observations {
		root.Append(e.entryElement(&observations[i]))
	}

	return root
}

// ToTSV renders observations as tab-delimited text: one newline-terminated
// line per observation, each listing the project name and then tag/value
// pairs in entry-document order. No header line; consumers rely on the
// schema-derived ordering.
func (e *RecordExporter) ToTSV(observations []models.Observation) string {
	var sb strings.Builder

	for i := range observations {
		observation := &observations[i]

		sb.WriteString(e.project.SanitizedName())
		sb.WriteByte('\t')

		sb.WriteString("id\t" + observation.ID.String() + "\t")
		sb.WriteString("location_lon\t" + strconv.FormatFloat(observation.Location().Lon(), 'f', -1, 64) + "\t")
		sb.WriteString("location_lat\t" + strconv.FormatFloat(observation.Location().Lat(), 'f', -1, 64) + "\t")
		sb.WriteString("created\t" + strconv.FormatInt(observation.CreatedAt.UTC().Unix(), 10) + "\t")
		sb.WriteString("uploaded\t" + observation.CreatedAt.Format("2006-01-02 15:04:05") + "\t")

		for _, pair := range e.entryPairs(observation) {
			sb.WriteString(pair[0] + "\t" + pair[1] + "\t")
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}

// ToWorkbook renders observations into an Excel workbook: a header row
// with the fixed columns followed by one column per schema field (in
// category order), then one row per observation. Cells outside the
// observation's category stay empty.
func (e *RecordExporter) ToWorkbook(observations []models.Observation) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Observations"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	header := []interface{}{"id", "location_lon", "location_lat", "created", "uploaded"}
	for _, key := range staticFields {
		header = append(header, key)
	}
	column := make(map[string]int)
	for _, id := range e.order {
		category := e.categories[id]
		for i := range category.Fields {
			tag := exportTag(&category.Fields[i])
			column[tag] = len(header)
			header = append(header, tag)
		}
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i := range observations {
		observation := &observations[i]

		row := make([]interface{}, len(header))
		row[0] = observation.ID.String()
		row[1] = observation.Location().Lon()
		row[2] = observation.Location().Lat()
		row[3] = observation.CreatedAt.UTC().Unix()
		row[4] = observation.CreatedAt.Format("2006-01-02 15:04:05")
		for j, key := range staticFields {
			row[5+j] = EncodeValue(observation.Properties[key])
		}

		if category, ok := e.categories[observation.CategoryID]; ok {
			for j := range category.Fields {
				field := &category.Fields[j]
				row[column[exportTag(field)]] = EncodeValue(observation.Properties[field.Key])
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
