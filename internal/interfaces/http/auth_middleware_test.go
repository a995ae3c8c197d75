package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/pos-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pos-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testBranchID  = "00000000-0000-0000-0000-000000000003"
	testIssuer    = "pos-api-test"
	testExpMin    = 60
)

// buildTestApp app mínima con AuthMiddleware + RequireRole y un handler que responde 200.
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func bearer(t *testing.T, role, branch string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{
		UserID: testUserID, CompanyID: testCompanyID, BranchID: branch, Role: role,
	}, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doGet(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireRole_AdminAccedeRutaAdmin(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin), "/protected", bearer(t, apphttp.RoleAdmin, testBranchID))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["role"])
}

func TestRequireRole_CajeroAccedeRutaCompartida(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin, apphttp.RoleCajero), "/protected", bearer(t, apphttp.RoleCajero, testBranchID))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_CajeroBloqueadoEnRutaAdmin(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin), "/protected", bearer(t, apphttp.RoleCajero, testBranchID))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin), "/protected", bearer(t, "", testBranchID))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

func TestAuthMiddleware_SinHeader_Retorna401(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin), "/protected", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestAuthMiddleware_TokenInvalido_Retorna401(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin), "/protected", "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

func TestAuthMiddleware_FormatoSinBearer_Retorna401(t *testing.T) {
	resp := doGet(t, buildTestApp(apphttp.RoleAdmin), "/protected", "Token abc")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_ExtraeTenant(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		tn := apphttp.GetTenant(c)
		return c.JSON(fiber.Map{"user_id": tn.UserID, "company_id": tn.CompanyID, "branch_id": tn.BranchID, "role": apphttp.GetRole(c)})
	})

	resp := doGet(t, app, "/me", bearer(t, apphttp.RoleCajero, testBranchID))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, testBranchID, body["branch_id"])
	assert.Equal(t, "cajero", body["role"])
}

func TestRequestTimeout_PoneDeadlineAlContexto(t *testing.T) {
	app := fiber.New()
	app.Get("/slow", apphttp.RequestTimeout(50*time.Millisecond), func(c *fiber.Ctx) error {
		dl, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"has_deadline": ok, "in_future": time.Until(dl) > 0})
	})

	resp := doGet(t, app, "/slow", "")
	defer resp.Body.Close()
	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["has_deadline"])
	assert.True(t, body["in_future"])
}
