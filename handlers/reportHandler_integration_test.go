package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// The summary route's box kind comes from the route itself, never from the
// request: /cash-boxes/:id/summary must answer about cash box :id even when
// the client sends a kind param.
//
// Usage: INTEGRATION_TESTS=1 go test ./handlers -run SummaryRouteKind -v
func TestSummaryRouteKind_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		t.Fatal("database not initialized")
	}
	models.MigrateTable()

	ownerId := int(time.Now().Unix() % 1_000_000_000)
	engine := workflow.NewLedgerEngine(db, config.GetLogger())

	ctx := utils.SetUserIdInContext(context.Background(), ownerId)
	ctx = utils.SetCorrelationIdInContext(ctx, utils.NewCorrelationId())
	box, err := engine.OpenCashBox(ctx, &workflow.OpenCashBoxInput{
		OpeningAmount: decimal.RequireFromString("75"),
	})
	if err != nil {
		t.Fatalf("OpenCashBox: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(utils.SetUserIdInContext(c.Request.Context(), ownerId))
		c.Next()
	})
	h := NewHandler(engine)
	router.GET("/cash-boxes/:id/summary", h.GetBoxSummary(models.BoxKindCash))
	router.GET("/money-boxes/:id/summary", h.GetBoxSummary(models.BoxKindMoney))

	// The stray kind param must not redirect the lookup to a money box.
	for _, target := range []string{
		fmt.Sprintf("/cash-boxes/%d/summary", box.ID),
		fmt.Sprintf("/cash-boxes/%d/summary?kind=money", box.ID),
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d body %s", target, w.Code, w.Body.String())
		}
		var summary struct {
			BoxKind models.BoxKind  `json:"box_kind"`
			TotalIn decimal.Decimal `json:"total_in"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
			t.Fatalf("GET %s: decode: %v", target, err)
		}
		if summary.BoxKind != models.BoxKindCash {
			t.Fatalf("GET %s: box kind %s, want %s", target, summary.BoxKind, models.BoxKindCash)
		}
		if !summary.TotalIn.Equal(decimal.RequireFromString("75")) {
			t.Fatalf("GET %s: total_in %s, want the opening float", target, summary.TotalIn)
		}
	}
}
