package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"surveyforge/app"
	"surveyforge/httpx"
	"surveyforge/log"
	"surveyforge/model"
	"surveyforge/schema"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateSurveyRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.RefID == "" || req.Name == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "survey.create", "refid and name are required")
			return
		}
		if _, err := schema.Parse(req.Data); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "survey.create.parse_data", "invalid survey definition")
			return
		}

		survey := model.Survey{
			ID:      uuid.NewString(),
			RefID:   req.RefID,
			Name:    req.Name,
			SecName: req.SecName,
			Data:    req.Data,
		}
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO survey (id, refid, name, secname, data)
			VALUES (?, ?, ?, ?, ?)
			RETURNING created_at, updated_at`,
			survey.ID,
			survey.RefID,
			survey.Name,
			survey.SecName,
			string(req.Data),
		).Scan(&survey.CreatedAt, &survey.UpdatedAt)
		if isUniqueViolation(err) {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "db.insert_survey.refid", "survey key already in use")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT s.refid, s.name, s.secname, s.created_at
			FROM survey s
			ORDER BY s.created_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.SurveyInfo{}
		for rows.Next() {
			s := model.SurveyInfo{}
			err = rows.Scan(&s.RefID, &s.Name, &s.SecName, &s.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}
			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyByRefID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refid := chi.URLParam(r, "refid")

		survey := model.Survey{}
		var data string
		err := app.QueryRowContext(r.Context(), `
			SELECT s.id, s.refid, s.name, s.secname, s.data, s.created_at, s.updated_at
			FROM survey s
			WHERE s.refid = ?`,
			refid,
		).Scan(&survey.ID, &survey.RefID, &survey.Name, &survey.SecName, &data, &survey.CreatedAt, &survey.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_survey", refid)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		survey.Data = []byte(data)

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refid := chi.URLParam(r, "refid")

		req := model.UpdateSurveyRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		data := string(req.Data)
		if data == "null" {
			// an explicit JSON null means "no change", same as omitting
			data = ""
		}
		if data != "" {
			if _, err := schema.Parse([]byte(data)); err != nil {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "survey.update.parse_data", "invalid survey definition")
				return
			}
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE survey
			SET
				name = COALESCE(NULLIF(?, ''), name),
				secname = COALESCE(?, secname),
				data = COALESCE(NULLIF(?, ''), data),
				updated_at = ?
			WHERE refid = ?`,
			req.Name,
			req.SecName,
			data,
			time.Now(),
			refid,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "update_survey", refid)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refid := chi.URLParam(r, "refid")

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM survey WHERE refid = ?`,
			refid,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", refid)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
