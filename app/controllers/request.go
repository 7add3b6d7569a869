package controllers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todo-tags/app/apperrors"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	taskSchema      = mustCompileSchema("task.json")
	tagSchema       = mustCompileSchema("tag.json")
	tagIDsSchema    = mustCompileSchema("tag_ids.json")
	tagStringSchema = mustCompileSchema("tag_string.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decodeBody validates the JSON request body against schema and decodes it
// into dst.
func decodeBody(r *http.Request, schema *jsonschema.Schema, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apperrors.Wrap(apperrors.ValidationFailed, "reading request body", err)
	}
	if len(data) > maxBodyBytes {
		return apperrors.New(apperrors.ValidationFailed, "request body too large")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return apperrors.Wrap(apperrors.ValidationFailed, "invalid request payload", err)
	}
	if err := schema.Validate(doc); err != nil {
		return schemaError(err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.Wrap(apperrors.ValidationFailed, "invalid request payload", err)
	}
	return nil
}

// schemaError reports the first leaf cause of a schema validation failure.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return apperrors.Wrap(apperrors.ValidationFailed, "invalid request payload", err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return apperrors.New(apperrors.ValidationFailed, ve.Message)
	}
	return apperrors.Newf(apperrors.ValidationFailed, "%s: %s", strings.ReplaceAll(field, "/", "."), ve.Message)
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Newf(apperrors.ValidationFailed, "invalid id %q", raw)
	}
	return id, nil
}

// parseIDList parses a comma-separated id list such as "1,2,3".
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ValidationFailed, "invalid tag id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
