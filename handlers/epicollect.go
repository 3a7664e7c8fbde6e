package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/ExCiteS/geokey-epicollect/config"
	"github.com/ExCiteS/geokey-epicollect/models"
	"github.com/ExCiteS/geokey-epicollect/pkg/ecml"
)

// notEnabledXML is the exact error body the mobile client expects for a
// project that is not opted in.
const notEnabledXML = "<error>The project must enabled for EpiCollect.</error>"

// epicollectProject loads an enabled EpiCollect project with its project
// row. gorm.ErrRecordNotFound doubles as "not enabled".
func epicollectProject(projectID uint) (*models.EpiCollectProject, error) {
	var epicollect models.EpiCollectProject
	err := config.DB.
		Preload("Project").
		Where("project_id = ? AND enabled = ?", projectID, true).
		First(&epicollect).Error
	if err != nil {
		return nil, err
	}
	return &epicollect, nil
}

// projectNotEnabled reports whether a lookup failure means the project
// is not opted in, as opposed to a store failure.
func projectNotEnabled(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// activeCategories loads the project's active schema: categories with
// their active fields and lookup options, everything ordered. The core
// packages only ever see this filtered view.
func activeCategories(projectID uint) ([]models.Category, error) {
	var categories []models.Category
	err := config.DB.
		Where("project_id = ? AND status = ?", projectID, models.StatusActive).
		Order("display_order, id").
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive).Order("display_order, id")
		}).
		Preload("Fields.Lookups", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive).Order("display_order, id")
		}).
		Find(&categories).Error
	return categories, err
}

func projectIDFromRequest(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["project_id"], 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func writeNotEnabled(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(notEnabledXML))
}

// GetProjectForm serves the compiled EcML form for an enabled project.
// GET /api/epicollect/projects/{project_id}.xml
func GetProjectForm(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	epicollect, err := epicollectProject(projectID)
	if err != nil {
		if projectNotEnabled(err) {
			writeNotEnabled(w)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	categories, err := activeCategories(projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	compiler := ecml.NewFormCompiler()
	doc, err := compiler.Compile(epicollect.Project, categories, r.Host)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body, err := doc.XML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write(body)
}

// UploadData accepts data, thumbnail and video uploads from the client.
// The client counts accepted records from the body: "1" on success, "0"
// on any rejection.
// POST /api/epicollect/projects/{project_id}/upload/?type=data|thumbnail|video&phoneid=...
func UploadData(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	epicollect, err := epicollectProject(projectID)
	if err != nil {
		if projectNotEnabled(err) {
			w.Write([]byte("0"))
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch r.URL.Query().Get("type") {
	case "data":
		uploadObservation(w, r, epicollect)
	case "thumbnail":
		uploadThumbnail(w, r)
	case "video":
		uploadVideo(w, r)
	default:
		w.Write([]byte("0"))
	}
}

// uploadObservation decodes a flat data submission and stores the
// observation plus any pending media tokens.
func uploadObservation(w http.ResponseWriter, r *http.Request, epicollect *models.EpiCollectProject) {
	if err := r.ParseForm(); err != nil {
		w.Write([]byte("0"))
		return
	}

	categories, err := activeCategories(epicollect.ProjectID)
	if err != nil {
		w.Write([]byte("0"))
		return
	}

	decoder := ecml.NewSubmissionDecoder()
	observation, media, err := decoder.Decode(
		r.PostForm,
		r.URL.Query().Get("phoneid"),
		epicollect.Project,
		categories,
	)
	if err != nil {
		if !errors.Is(err, ecml.ErrCategoryNotFound) && !errors.Is(err, ecml.ErrMissingLocation) {
			log.Printf("epicollect: decode failed for project %d: %v", epicollect.ProjectID, err)
		}
		w.Write([]byte("0"))
		return
	}

	observation.ID = uuid.New()
	if err := config.DB.Create(observation).Error; err != nil {
		log.Printf("epicollect: store rejected observation for project %d: %v", epicollect.ProjectID, err)
		w.Write([]byte("0"))
		return
	}

	// Attachment linkage is best-effort; the observation stays stored
	// even if a token cannot be recorded.
	for _, pending := range media {
		link := models.EpiCollectMedia{
			ObservationID: observation.ID,
			FileName:      pending.Token,
		}
		if err := config.DB.Create(&link).Error; err != nil {
			log.Printf("epicollect: could not record %s token %q: %v", pending.Kind, pending.Token, err)
		}
	}

	w.Write([]byte("1"))
}

// uploadThumbnail stores photo binaries. The client names each file part
// after the token it announced in the data upload, plus an extension.
func uploadThumbnail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		w.Write([]byte("0"))
		return
	}

	for key := range r.MultipartForm.File {
		token := key
		if dot := lastDot(key); dot >= 0 {
			token = key[:dot]
		}

		if err := resolveMedia(token, key, r); err != nil {
			log.Printf("epicollect: thumbnail %q not linked: %v", key, err)
			w.Write([]byte("0"))
			return
		}
	}

	w.Write([]byte("1"))
}

// uploadVideo stores a video binary sent under the "name" field.
func uploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		w.Write([]byte("0"))
		return
	}

	file, header, err := r.FormFile("name")
	if err != nil {
		w.Write([]byte("0"))
		return
	}
	defer file.Close()

	var pending models.EpiCollectMedia
	if err := config.DB.Where("file_name = ?", header.Filename).First(&pending).Error; err != nil {
		log.Printf("epicollect: no pending media for video %q", header.Filename)
		w.Write([]byte("0"))
		return
	}

	if _, err := SaveMediaFile(r.Context(), header.Filename, file); err != nil {
		log.Printf("epicollect: storing video %q failed: %v", header.Filename, err)
		w.Write([]byte("0"))
		return
	}

	// clearing the token is best-effort, the binary is already stored
	if err := config.DB.Delete(&pending).Error; err != nil {
		log.Printf("epicollect: could not clear media token %q: %v", header.Filename, err)
	}
	w.Write([]byte("1"))
}

// resolveMedia matches an uploaded file to its pending token, stores the
// binary and clears the token.
func resolveMedia(token, filename string, r *http.Request) error {
	var pending models.EpiCollectMedia
	if err := config.DB.Where("file_name = ?", token).First(&pending).Error; err != nil {
		return fmt.Errorf("no pending media for token %q: %w", token, err)
	}

	file, _, err := r.FormFile(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := SaveMediaFile(r.Context(), filename, file); err != nil {
		return err
	}

	// clearing the token is best-effort, the binary is already stored
	if err := config.DB.Delete(&pending).Error; err != nil {
		log.Printf("epicollect: could not clear media token %q: %v", token, err)
	}
	return nil
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// DownloadData exports a project's observations. XML entry document by
// default, tab-delimited with ?xml=false, Excel with ?format=xlsx.
// GET /api/epicollect/projects/{project_id}/download/
func DownloadData(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	epicollect, err := epicollectProject(projectID)
	if err != nil {
		if projectNotEnabled(err) {
			writeNotEnabled(w)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	categories, err := activeCategories(projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var observations []models.Observation
	err = config.DB.
		Where("project_id = ?", projectID).
		Order("created_at, id").
		Find(&observations).Error
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	exporter := ecml.NewRecordExporter(epicollect.Project, categories)

	switch {
	case r.URL.Query().Get("format") == "xlsx":
		writeWorkbook(w, epicollect.Project, exporter, observations)
	case r.URL.Query().Get("xml") == "false":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(exporter.ToTSV(observations)))
	default:
		body, err := exporter.ToEntryDocument(observations).XML()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Write(body)
	}
}

// writeWorkbook streams the Excel export.
func writeWorkbook(w http.ResponseWriter, project *models.Project, exporter *ecml.RecordExporter, observations []models.Observation) {
	workbook, err := exporter.ToWorkbook(observations)
	if err != nil {
		http.Error(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		http.Error(w, "Failed to write Excel file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s.xlsx", project.SanitizedName())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}
