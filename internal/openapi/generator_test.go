package openapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/johestephan/dokemon-api/internal/model"
)

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func testOperations() []Operation {
	return []Operation{
		{ID: "health", Method: "GET", Path: "/health", Tag: "health", Summary: "Check Docker status", Access: Public},
		{ID: "login", Method: "POST", Path: "/api/v1/users/login", Tag: "users", Summary: "User login",
			Access: Public, Request: loginBody{}, Response: model.Response{}},
		{ID: "listContainers", Method: "GET", Path: "/api/v1/containers", Tag: "containers", Summary: "List containers",
			Access: Authenticated, Response: struct {
				Containers []model.ContainerRecord `json:"containers"`
			}{},
			Query: []Param{{Name: "all", Type: "boolean", Description: "Include stopped containers"}}},
		{ID: "removeContainer", Method: "DELETE", Path: "/api/v1/containers/{id}/remove", Tag: "containers",
			Summary: "Remove container", Access: Authenticated, Response: model.CommandResponse{}},
		{ID: "listUsers", Method: "GET", Path: "/api/v1/users/list", Tag: "users", Summary: "List users", Access: Admin},
		{ID: "createUser", Method: "POST", Path: "/api/v1/users", Tag: "users", Summary: "Create user",
			Access: Public, Status: http.StatusCreated, Request: loginBody{}},
		{ID: "logoutPage", Method: "GET", Path: "/api/v1/users/logout", Tag: "users", Summary: "Logout page", HTML: true},
	}
}

func generate(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := Generate(Info{Title: "Dokemon API", Version: "1.2.3", ServerURL: "http://localhost:9090"}, testOperations())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return doc
}

func TestGenerateDocumentMetadata(t *testing.T) {
	doc := generate(t)

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI version = %q, want 3.1.0", doc.OpenAPI)
	}
	if doc.Info.Title != "Dokemon API" || doc.Info.Version != "1.2.3" {
		t.Errorf("Info = %+v", doc.Info)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:9090" {
		t.Errorf("Servers not set correctly")
	}
}

func TestGenerateSecuritySchemes(t *testing.T) {
	doc := generate(t)

	cookie, ok := doc.Components.SecuritySchemes["cookieAuth"]
	if !ok {
		t.Fatal("cookieAuth security scheme not found")
	}
	if cookie.Value.In != "cookie" || cookie.Value.Name != SessionCookie {
		t.Errorf("cookieAuth = %+v", cookie.Value)
	}
	bearer, ok := doc.Components.SecuritySchemes["bearerAuth"]
	if !ok || bearer.Value.Scheme != "bearer" {
		t.Fatal("bearerAuth security scheme missing or wrong")
	}
	if len(doc.Security) != 2 {
		t.Errorf("Security requirements count = %d, want 2", len(doc.Security))
	}
}

func TestGeneratePublicOperationsOptOutOfSecurity(t *testing.T) {
	doc := generate(t)

	health := doc.Paths.Value("/health").Get
	if health.Security == nil || len(*health.Security) != 0 {
		t.Error("public operation should carry an empty security requirement")
	}
	list := doc.Paths.Value("/api/v1/containers").Get
	if list.Security != nil {
		t.Error("authenticated operation should inherit the global security")
	}
	if list.Responses.Value("401") == nil {
		t.Error("authenticated operation should document 401")
	}
	if list.Responses.Value("403") != nil {
		t.Error("non-admin operation should not document 403")
	}
	admin := doc.Paths.Value("/api/v1/users/list").Get
	if admin.Responses.Value("403") == nil {
		t.Error("admin operation should document 403")
	}
}

func TestGenerateParameters(t *testing.T) {
	doc := generate(t)

	remove := doc.Paths.Value("/api/v1/containers/{id}/remove").Delete
	if len(remove.Parameters) != 1 || remove.Parameters[0].Value.In != "path" || remove.Parameters[0].Value.Name != "id" {
		t.Errorf("path parameters = %+v", remove.Parameters)
	}
	list := doc.Paths.Value("/api/v1/containers").Get
	if len(list.Parameters) != 1 || list.Parameters[0].Value.In != "query" {
		t.Fatalf("query parameters = %+v", list.Parameters)
	}
	if !list.Parameters[0].Value.Schema.Value.Type.Is("boolean") {
		t.Error("all parameter should be boolean")
	}
}

func TestGenerateBodiesAndStatus(t *testing.T) {
	doc := generate(t)

	login := doc.Paths.Value("/api/v1/users/login").Post
	if login.RequestBody == nil {
		t.Fatal("login should document a request body")
	}
	body := login.RequestBody.Value.Content.Get("application/json").Schema.Value
	if _, ok := body.Properties["username"]; !ok {
		t.Errorf("request schema properties = %v", body.Properties)
	}

	create := doc.Paths.Value("/api/v1/users").Post
	if create.Responses.Value("201") == nil {
		t.Error("createUser should answer 201")
	}
	page := doc.Paths.Value("/api/v1/users/logout").Get
	if page.Responses.Value("200").Value.Content.Get("text/html") == nil {
		t.Error("logout page should be documented as HTML")
	}

	list := doc.Paths.Value("/api/v1/containers").Get
	resp := list.Responses.Value("200").Value.Content.Get("application/json").Schema.Value
	containers := resp.Properties["containers"].Value
	if !containers.Type.Is("array") {
		t.Fatalf("containers type = %v", containers.Type)
	}
	if _, ok := containers.Items.Value.Properties["container_id"]; !ok {
		t.Error("container records should expose container_id")
	}
}

func TestGeneratedDocumentSerializes(t *testing.T) {
	doc := generate(t)
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["paths"].(map[string]any)["/api/v1/containers/{id}/remove"]; !ok {
		t.Error("serialized document is missing a path")
	}
}
