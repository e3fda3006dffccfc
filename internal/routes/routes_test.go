package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lend_tracker/internal/controllers"
	"lend_tracker/internal/middleware"
	"lend_tracker/internal/notify"
	"lend_tracker/internal/service"
	"lend_tracker/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router http.Handler
	hub    *notify.Hub
}

func newTestApp(t *testing.T, codes ...string) *testApp {
	t.Helper()
	hub := notify.NewHub()
	t.Cleanup(hub.Close)

	i := 0
	nextCode := func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
	svc := service.New(store.NewMemory(), hub, service.WithCodeGenerator(nextCode))
	tokens := middleware.NewTokenIssuer("test-secret", time.Hour, 10*time.Minute)
	ctl := controllers.New(svc, tokens, hub, nil)
	return &testApp{router: SetupRouter(ctl, tokens, nil), hub: hub}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

func (a *testApp) expect(t *testing.T, want int, method, path, token string, body interface{}) map[string]interface{} {
	t.Helper()
	code, out := a.do(t, method, path, token, body)
	if code != want {
		t.Fatalf("%s %s = %d, want %d: %v", method, path, code, want, out)
	}
	return out
}

func (a *testApp) signup(t *testing.T, email string) (string, uint) {
	t.Helper()
	out := a.expect(t, http.StatusCreated, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Lender", "email": email, "password": "correct horse",
	})
	user := out["user"].(map[string]interface{})
	return out["token"].(string), uint(user["id"].(float64))
}

func field(m map[string]interface{}, keys ...string) interface{} {
	var cur interface{} = m
	for _, k := range keys {
		cur = cur.(map[string]interface{})[k]
	}
	return cur
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, "1234")
	out := app.expect(t, http.StatusOK, http.MethodGet, "/healthz", "", nil)
	if out["status"] != "ok" {
		t.Errorf("healthz = %v", out)
	}
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, "1234")
	app.signup(t, "ada@example.com")

	app.expect(t, http.StatusConflict, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	app.expect(t, http.StatusBadRequest, http.MethodPost, "/auth/signup", "", map[string]string{
		"name": "Ada", "email": "bob@example.com", "password": "short",
	})

	out := app.expect(t, http.StatusOK, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct horse",
	})
	if out["token"] == "" {
		t.Errorf("login returned no token")
	}
	if _, hasPassword := out["user"].(map[string]interface{})["password"]; hasPassword {
		t.Errorf("password hash leaked in response")
	}
	app.expect(t, http.StatusUnauthorized, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong password",
	})

	app.expect(t, http.StatusUnauthorized, http.MethodGet, "/admin/friends", "", nil)
}

func TestLendingFlow(t *testing.T) {
	app := newTestApp(t, "1234", "5678")
	admin, _ := app.signup(t, "ada@example.com")

	friend := app.expect(t, http.StatusCreated, http.MethodPost, "/admin/friends", admin, map[string]string{
		"full_name": "Grace Hopper", "whatsapp_number": "+15550102030",
	})["data"].(map[string]interface{})
	friendID := uint(friend["id"].(float64))
	token := friend["tracking_url"].(string)
	if friend["tracking_code"] != "1234" {
		t.Fatalf("tracking_code = %v", friend["tracking_code"])
	}

	app.expect(t, http.StatusConflict, http.MethodPost, "/admin/friends", admin, map[string]string{
		"full_name": "Copy", "whatsapp_number": "+1 555 010 2030",
	})

	other := app.expect(t, http.StatusCreated, http.MethodPost, "/admin/friends", admin, map[string]string{
		"full_name": "Alan", "whatsapp_number": "+15550000001",
	})["data"].(map[string]interface{})
	otherID := uint(other["id"].(float64))

	txPath := fmt.Sprintf("/admin/friends/%d/transactions", friendID)
	app.expect(t, http.StatusCreated, http.MethodPost, txPath, admin, map[string]interface{}{
		"type": "loan", "amount": 100, "transaction_date": "2024-01-01", "description": "rent",
	})
	app.expect(t, http.StatusCreated, http.MethodPost, txPath, admin, map[string]interface{}{
		"type": "repayment", "amount": "40.50", "transaction_date": "2024-01-05",
	})
	app.expect(t, http.StatusCreated, http.MethodPost, fmt.Sprintf("/admin/friends/%d/transactions", otherID), admin, map[string]interface{}{
		"type": "loan", "amount": 10, "transaction_date": "2024-01-02",
	})
	app.expect(t, http.StatusBadRequest, http.MethodPost, txPath, admin, map[string]interface{}{
		"type": "loan", "amount": -5,
	})
	app.expect(t, http.StatusBadRequest, http.MethodPost, txPath, admin, map[string]interface{}{
		"type": "loan", "amount": 5, "transaction_date": "yesterday",
	})

	list := app.expect(t, http.StatusOK, http.MethodGet, txPath+"?type=loan", admin, nil)
	if rows := list["data"].([]interface{}); len(rows) != 1 {
		t.Errorf("loan filter returned %d rows", len(rows))
	}
	if got := field(list, "summary", "remaining_balance"); got != "59.5" {
		t.Errorf("remaining_balance = %v, want 59.5", got)
	}
	if got := field(list, "summary", "status"); got != "owing" {
		t.Errorf("status = %v", got)
	}
	app.expect(t, http.StatusBadRequest, http.MethodGet, txPath+"?sort_by=color", admin, nil)

	sorted := app.expect(t, http.StatusOK, http.MethodGet, txPath+"?sort_by=amount&sort_order=asc", admin, nil)["data"].([]interface{})
	if first := sorted[0].(map[string]interface{}); first["amount"] != "40.5" {
		t.Errorf("ascending by amount starts with %v", first["amount"])
	}

	dash := app.expect(t, http.StatusOK, http.MethodGet, "/admin/dashboard", admin, nil)
	if got := field(dash, "totals", "outstanding"); got != "69.5" {
		t.Errorf("outstanding = %v, want 69.5", got)
	}

	// locked preview shows only the first name
	preview := app.expect(t, http.StatusOK, http.MethodGet, "/track/"+token, "", nil)
	if preview["friend_name"] != "Grace" {
		t.Errorf("preview = %v", preview)
	}
	if _, leaked := preview["tracking_code"]; leaked {
		t.Errorf("preview leaked the code")
	}
	app.expect(t, http.StatusNotFound, http.MethodGet, "/track/not-a-token", "", nil)

	out := app.expect(t, http.StatusUnauthorized, http.MethodPost, "/track/"+token+"/unlock", "", map[string]string{"code": "0000"})
	if out["error"] != "invalid access code" {
		t.Errorf("mismatch error = %v", out["error"])
	}
	out = app.expect(t, http.StatusUnauthorized, http.MethodPost, "/track/"+token+"/unlock", "", map[string]string{"code": "12a4"})
	if out["error"] != "invalid access code" {
		t.Errorf("format error = %v", out["error"])
	}

	session := app.expect(t, http.StatusOK, http.MethodPost, "/track/"+token+"/unlock", "", map[string]string{"code": "1234"})["session"].(string)

	app.expect(t, http.StatusUnauthorized, http.MethodGet, "/track/"+token+"/transactions", "", nil)
	app.expect(t, http.StatusForbidden, http.MethodGet, "/track/"+token+"/transactions", admin, nil)
	app.expect(t, http.StatusUnauthorized, http.MethodGet, "/track/"+other["tracking_url"].(string)+"/transactions", session, nil)
	app.expect(t, http.StatusForbidden, http.MethodGet, "/admin/friends", session, nil)

	view := app.expect(t, http.StatusOK, http.MethodGet, "/track/"+token+"/transactions?q=rent", session, nil)
	if view["friend_name"] != "Grace Hopper" || view["currency"] != "USD" {
		t.Errorf("view = %v", view)
	}
	if rows := view["data"].([]interface{}); len(rows) != 1 {
		t.Errorf("search returned %d rows", len(rows))
	}

	regen := app.expect(t, http.StatusOK, http.MethodPost, fmt.Sprintf("/admin/friends/%d/regenerate-code", friendID), admin, nil)["data"].(map[string]interface{})
	if regen["tracking_code"] != "5678" || regen["tracking_url"] != token {
		t.Errorf("regenerated = %v", regen)
	}
	app.expect(t, http.StatusUnauthorized, http.MethodPost, "/track/"+token+"/unlock", "", map[string]string{"code": "1234"})
	app.expect(t, http.StatusOK, http.MethodPost, "/track/"+token+"/unlock", "", map[string]string{"code": "5678"})

	app.expect(t, http.StatusNoContent, http.MethodDelete, fmt.Sprintf("/admin/friends/%d", friendID), admin, nil)
	app.expect(t, http.StatusNotFound, http.MethodGet, fmt.Sprintf("/admin/friends/%d", friendID), admin, nil)
	app.expect(t, http.StatusNotFound, http.MethodGet, "/track/"+token, "", nil)
	app.expect(t, http.StatusUnauthorized, http.MethodGet, "/track/"+token+"/transactions", session, nil)

	remaining := app.expect(t, http.StatusOK, http.MethodGet, fmt.Sprintf("/admin/friends/%d/transactions", otherID), admin, nil)
	if rows := remaining["data"].([]interface{}); len(rows) != 1 {
		t.Errorf("other friend's transactions = %d, want 1", len(rows))
	}
}

func TestOtherAdminsFriendIsHidden(t *testing.T) {
	app := newTestApp(t, "1234")
	alice, _ := app.signup(t, "alice@example.com")
	bob, _ := app.signup(t, "bob@example.com")

	friend := app.expect(t, http.StatusCreated, http.MethodPost, "/admin/friends", alice, map[string]string{
		"full_name": "Carol", "whatsapp_number": "+15550000001",
	})["data"].(map[string]interface{})
	path := fmt.Sprintf("/admin/friends/%d", uint(friend["id"].(float64)))

	app.expect(t, http.StatusNotFound, http.MethodGet, path, bob, nil)
	app.expect(t, http.StatusNotFound, http.MethodDelete, path, bob, nil)
	app.expect(t, http.StatusNotFound, http.MethodGet, path+"/transactions", bob, nil)
	app.expect(t, http.StatusBadRequest, http.MethodGet, "/admin/friends/abc", bob, nil)
}

func TestCurrencyChangeReachesTrackingView(t *testing.T) {
	app := newTestApp(t, "1234")
	admin, adminID := app.signup(t, "ada@example.com")
	friend := app.expect(t, http.StatusCreated, http.MethodPost, "/admin/friends", admin, map[string]string{
		"full_name": "Grace", "whatsapp_number": "+15550102030",
	})["data"].(map[string]interface{})
	token := friend["tracking_url"].(string)
	session := app.expect(t, http.StatusOK, http.MethodPost, "/track/"+token+"/unlock", "", map[string]string{"code": "1234"})["session"].(string)

	srv := httptest.NewServer(app.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/track/" + token

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"?session=bogus", nil); err == nil {
		t.Fatal("dial with a bogus session succeeded")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bogus session response = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?session="+session, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for app.hub.Subscribers(adminID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	app.expect(t, http.StatusOK, http.MethodPut, "/admin/profile", admin, map[string]string{"preferred_currency": "eur"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev notify.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ev.Kind != notify.KindCurrencyChanged || ev.PreferredCurrency != "EUR" || ev.AdminID != adminID {
		t.Errorf("event = %+v", ev)
	}
}
