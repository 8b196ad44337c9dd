// Package openapi renders the route catalog as an OpenAPI 3.1 document.
package openapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/johestephan/dokemon-api/internal/model"
)

// SessionCookie is the cookie documented by the cookieAuth scheme.
const SessionCookie = "dokemon_session"

// Generate builds the OpenAPI document for ops.
func Generate(info Info, ops []Operation) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       info.Title,
			Description: info.Description,
			Version:     info.Version,
		},
	}
	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.ServerURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["cookieAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "cookie",
			Name: SessionCookie,
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"cookieAuth": {}},
		{"bearerAuth": {}},
	}

	errSchema, err := schemaFor(model.ErrorResponse{}, components.Schemas)
	if err != nil {
		return nil, err
	}
	doc.Components.Schemas["ErrorResponse"] = errSchema

	doc.Paths = openapi3.NewPaths()
	for _, op := range ops {
		operation, err := buildOperation(op, components.Schemas)
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", op.ID, err)
		}
		item := doc.Paths.Value(op.Path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(op.Path, item)
		}
		item.SetOperation(op.Method, operation)
	}
	return doc, nil
}

func buildOperation(op Operation, schemas openapi3.Schemas) (*openapi3.Operation, error) {
	operation := &openapi3.Operation{
		OperationID: op.Tag + "_" + op.ID,
		Summary:     op.Summary,
		Tags:        []string{op.Tag},
	}
	switch op.Access {
	case Public:
		operation.Security = &openapi3.SecurityRequirements{}
	case Admin:
		operation.Description = "Requires an admin session."
	}

	for _, name := range pathParams(op.Path) {
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()),
		})
	}
	for _, q := range op.Query {
		operation.Parameters = append(operation.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewQueryParameter(q.Name).
				WithDescription(q.Description).
				WithSchema(paramSchema(q.Type)),
		})
	}

	if op.Request != nil {
		ref, err := schemaFor(op.Request, schemas)
		if err != nil {
			return nil, err
		}
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref),
		}
	}

	var success *openapi3.Response
	switch {
	case op.HTML:
		success = openapi3.NewResponse().
			WithDescription("HTML page").
			WithContent(openapi3.Content{"text/html": openapi3.NewMediaType().WithSchema(openapi3.NewStringSchema())})
	case op.Response != nil:
		ref, err := schemaFor(op.Response, schemas)
		if err != nil {
			return nil, err
		}
		success = openapi3.NewResponse().WithDescription("Success").WithJSONSchemaRef(ref)
	default:
		success = openapi3.NewResponse().WithDescription("Success")
	}

	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	operation.Responses = errorResponses(op.Access)
	operation.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: success})
	return operation, nil
}

// errorResponses returns the failure responses an operation can produce.
func errorResponses(access Access) *openapi3.Responses {
	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	codes := []int{http.StatusBadRequest, http.StatusInternalServerError}
	if access >= Authenticated {
		codes = append(codes, http.StatusUnauthorized)
	}
	if access == Admin {
		codes = append(codes, http.StatusForbidden)
	}

	responses := openapi3.NewResponsesWithCapacity(len(codes) + 1)
	for _, code := range codes {
		responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(http.StatusText(code)).
				WithJSONSchemaRef(errorRef),
		})
	}
	return responses
}

// schemaFor derives a JSON schema from the Go type of v.
func schemaFor(v any, schemas openapi3.Schemas) (*openapi3.SchemaRef, error) {
	ref, err := openapi3gen.NewSchemaRefForValue(v, schemas)
	if err != nil {
		return nil, fmt.Errorf("schema for %T: %w", v, err)
	}
	return ref, nil
}

func paramSchema(typ string) *openapi3.Schema {
	switch typ {
	case "boolean":
		return openapi3.NewBoolSchema()
	case "integer":
		return openapi3.NewIntegerSchema()
	default:
		return openapi3.NewStringSchema()
	}
}

// pathParams returns the {name} segments of path in order.
func pathParams(path string) []string {
	var names []string
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			names = append(names, seg[1:len(seg)-1])
		}
	}
	return names
}
