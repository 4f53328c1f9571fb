package public

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		headers map[string]string
		tls     bool
		want    string
	}{
		{"origin header", map[string]string{"Origin": "https://kabob.test/", "Referer": "https://other.test/x"}, false, "https://kabob.test"},
		{"null origin falls to referer", map[string]string{"Origin": "null", "Referer": "https://kabob.test/checkout?step=2"}, false, "https://kabob.test"},
		{"host", nil, false, "http://api.kabob.test"},
		{"tls host", nil, true, "https://api.kabob.test"},
		{"forwarded proto", map[string]string{"X-Forwarded-Proto": "https"}, false, "https://api.kabob.test"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "http://api.kabob.test/api/v1/checkout/sessions", nil)
			for key, value := range tc.headers {
				c.Request.Header.Set(key, value)
			}
			if tc.tls {
				c.Request.TLS = &tls.ConnectionState{}
			}
			if got := requestOrigin(c); got != tc.want {
				t.Fatalf("origin = %q want %q", got, tc.want)
			}
		})
	}
}

func TestCartItemRequestFallsBackToID(t *testing.T) {
	item := CartItemRequest{ID: " kabob1 ", Name: "Chicken Kabob", Quantity: 1}.toItem()
	if item.MenuItemID != "kabob1" {
		t.Fatalf("menu item id = %q", item.MenuItemID)
	}
	item = CartItemRequest{MenuItemID: "kabob2", ID: "kabob2--", Name: "Beef Kabob"}.toItem()
	if item.MenuItemID != "kabob2" {
		t.Fatalf("menu item id = %q", item.MenuItemID)
	}
	if len(toCartItems(nil)) != 0 {
		t.Fatalf("nil requests should give no items")
	}
}
