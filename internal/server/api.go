package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/victorarias/todos/internal/session"
	"github.com/victorarias/todos/internal/todo"
)

const maxImportBytes = 1 << 20

const importSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["lists"],
	"additionalProperties": false,
	"properties": {
		"lists": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"additionalProperties": false,
				"properties": {
					"name": {"type": "string"},
					"todos": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name"],
							"additionalProperties": false,
							"properties": {
								"name": {"type": "string"},
								"completed": {"type": "boolean"}
							}
						}
					}
				}
			}
		}
	}
}`

func compileImportSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("import.json", strings.NewReader(importSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("import.json")
}

func (s *Server) handleAPILists(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	resp := ListsResponse{Lists: []APIList{}}
	for _, list := range todo.SortLists(sess.Lists()) {
		resp.Lists = append(resp.Lists, newAPIList(list))
	}
	resp.Total = len(resp.Lists)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleAPIImport appends the posted lists to the session. Either every list
// and todo is accepted or nothing changes.
func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Request body too large or unreadable")
		return
	}
	var doc interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := s.importSchema.Validate(doc); err != nil {
		path, message := firstSchemaError(err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorPayload{
			Code:    "invalid_request",
			Message: message,
			Path:    path,
		}})
		return
	}
	var req ImportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	lists := append([]todo.List(nil), sess.Lists()...)
	imported := make([]APIList, 0, len(req.Lists))
	for i, in := range req.Lists {
		var list todo.List
		lists, list, err = todo.CreateList(lists, in.Name, s.now())
		if err != nil {
			s.writeImportError(w, fmt.Sprintf("/lists/%d/name", i), err)
			return
		}
		created, _ := todo.FindList(lists, list.ID)
		for j, t := range in.Todos {
			added, err := todo.AddTodo(created, t.Name)
			if err != nil {
				s.writeImportError(w, fmt.Sprintf("/lists/%d/todos/%d/name", i, j), err)
				return
			}
			if t.Completed {
				if err := todo.SetCompleted(created, added.ID, true); err != nil {
					s.writeImportError(w, fmt.Sprintf("/lists/%d/todos/%d/completed", i, j), err)
					return
				}
			}
		}
		imported = append(imported, newAPIList(*created))
	}

	sess.SetLists(lists)
	s.writeJSON(w, http.StatusCreated, ListsResponse{Lists: imported, Total: len(imported)})
}

func (s *Server) writeImportError(w http.ResponseWriter, path string, err error) {
	if ve, ok := todo.IsValidation(err); ok {
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorPayload{
			Code:    "validation_failed",
			Message: ve.Message,
			Path:    path,
		}})
		return
	}
	s.serverError(w, err)
}

// firstSchemaError walks to the first leaf cause, which names the offending
// field rather than the enclosing object.
func firstSchemaError(err error) (string, string) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "", err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve.InstanceLocation, ve.Message
}
