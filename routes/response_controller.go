package routes

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"surveyforge/app"
	"surveyforge/httpx"
	"surveyforge/log"
	"surveyforge/model"
)

func CreateResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateResponseRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.RefID == "" || len(req.Data) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "response.create", "refid and data are required")
			return
		}

		resp, err := insertResponse(r, app.DB, req)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		// push to any dashboard watching this survey
		app.Hub.Broadcast(resp.RefID, resp)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, resp)
	}
}

// BulkCreateResponses takes the batch a mobile client queued while
// offline. All rows land in one transaction; dashboards hear about each.
func BulkCreateResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.BulkResponseRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(req.Responses) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "response.bulk", "responses are required")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO response (id, refid, name, secname, data)
			VALUES (?, ?, ?, ?, ?)
			RETURNING created_at`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_responses.prepare", err)
			return
		}
		defer stmt.Close()

		responses := make([]model.Response, 0, len(req.Responses))
		for _, one := range req.Responses {
			if one.RefID == "" || len(one.Data) == 0 {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "response.bulk", "refid and data are required")
				return
			}
			resp := model.Response{
				ID:      uuid.NewString(),
				RefID:   one.RefID,
				Name:    one.Name,
				SecName: one.SecName,
				Data:    one.Data,
			}
			err = stmt.QueryRowContext(r.Context(),
				resp.ID, resp.RefID, resp.Name, resp.SecName, string(one.Data),
			).Scan(&resp.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_responses.insert", err)
				return
			}
			responses = append(responses, resp)
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_responses.commit", err)
			return
		}

		for i := range responses {
			app.Hub.Broadcast(responses[i].RefID, responses[i])
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"count":     len(responses),
			"responses": responses,
		})
	}
}

func GetResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refid := chi.URLParam(r, "refid")

		responses, err := queryResponses(r, app.DB, refid)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"count":     len(responses),
			"responses": responses,
		})
	}
}

// ExportResponsesCSV flattens every response of a survey to one CSV row.
// Columns are the union of answer keys across responses; JSON-valued
// answers are rendered as their literal JSON text. Output is buffered so a
// failure halfway through yields a clean error instead of a torn download.
func ExportResponsesCSV(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refid := chi.URLParam(r, "refid")

		responses, err := queryResponses(r, app.DB, refid)
		if err != nil {
			httpx.LogInternalError(w, "db.export_responses", err)
			return
		}

		buf := httpx.NewResponseBuffer()
		buf.Header().Set("Content-Type", "text/csv")
		buf.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_responses.csv", refid))

		err = writeResponsesCSV(buf, responses)
		if err != nil {
			httpx.LogInternalError(w, "export_responses.render", err)
			return
		}
		err = buf.Flush(w)
		if err != nil {
			log.Debugf("export_responses.write: %s", err)
		}
	}
}

func insertResponse(r *http.Request, db *sql.DB, req model.CreateResponseRequest) (model.Response, error) {
	resp := model.Response{
		ID:      uuid.NewString(),
		RefID:   req.RefID,
		Name:    req.Name,
		SecName: req.SecName,
		Data:    req.Data,
	}
	err := db.QueryRowContext(r.Context(), `
		INSERT INTO response (id, refid, name, secname, data)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at`,
		resp.ID,
		resp.RefID,
		resp.Name,
		resp.SecName,
		string(req.Data),
	).Scan(&resp.CreatedAt)
	return resp, err
}

func queryResponses(r *http.Request, db *sql.DB, refid string) ([]model.Response, error) {
	rows, err := db.QueryContext(r.Context(), `
		SELECT x.id, x.refid, x.name, x.secname, x.data, x.created_at
		FROM response x
		WHERE x.refid = ?
		ORDER BY x.created_at DESC`,
		refid,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		resp := model.Response{}
		var data string
		err = rows.Scan(&resp.ID, &resp.RefID, &resp.Name, &resp.SecName, &data, &resp.CreatedAt)
		if err != nil {
			return nil, err
		}
		resp.Data = []byte(data)
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func writeResponsesCSV(w http.ResponseWriter, responses []model.Response) error {
	parsed := make([]map[string]json.RawMessage, len(responses))
	keySet := map[string]bool{}
	for i, resp := range responses {
		if err := json.Unmarshal(resp.Data, &parsed[i]); err != nil {
			// a malformed answer document still gets its identity row
			continue
		}
		for k := range parsed[i] {
			keySet[k] = true
		}
	}

	dataKeys := make([]string, 0, len(keySet))
	for k := range keySet {
		dataKeys = append(dataKeys, k)
	}
	sort.Strings(dataKeys)

	writer := csv.NewWriter(w)

	header := append([]string{"id", "refid", "name", "secname", "created_at"}, dataKeys...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, resp := range responses {
		row := []string{
			resp.ID,
			resp.RefID,
			resp.Name,
			resp.SecName,
			resp.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for _, k := range dataKeys {
			value := ""
			if raw, ok := parsed[i][k]; ok {
				value = string(raw)
			}
			row = append(row, value)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
